// Package pipeline turns a stop index and a plan of lines into the exported
// collection: it builds every line, optionally splits round trips at their
// turnaround, and gathers what went missing along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/erzurum-ulasim/routegeom/internal/clock"
	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/metrics"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

// Line is a line built from an explicit list of stop ids.
type Line struct {
	Name    string   `yaml:"name" json:"name" validate:"required"`
	StopIDs []string `yaml:"stopIds" json:"stopIds" validate:"required,min=1,dive,required"`
	// Split asks for the line to be cut at its turnaround.
	Split bool `yaml:"split" json:"split"`
}

// Plan lists what to build, in output order: explicit lines first, then one
// forward and one reverse line per route membership, then GTFS sequences,
// then ready-made traces.
type Plan struct {
	Lines []Line
	// Membership builds lines from the routes listed on each stop.
	Membership bool
	// SplitMembership treats each membership line as a round trip and splits
	// it instead of adding a reversed copy. Routes with no turnaround keep
	// both directions.
	SplitMembership bool
	// Sequences are per-direction stop sequences from a GTFS feed.
	Sequences []stopindex.Sequence
	// Traces are lines that already have coordinates.
	Traces      []routes.Polyline
	SplitTraces bool
}

// Options configures a Pipeline.
type Options struct {
	// Workers bounds how many lines are built at once; zero or less means
	// runtime.NumCPU().
	Workers           int
	Naming            routes.Naming
	SplitNaming       turnaround.Naming
	Turnaround        turnaround.Config
	DirectionSuffixes []string
	// ClusterTolerance, in meters, groups stops closer than it; zero
	// disables clustering.
	ClusterTolerance float64
}

// DefaultOptions returns the naming and detector settings used by the mobile
// client data.
func DefaultOptions() Options {
	return Options{
		Naming:            routes.DefaultNaming(),
		SplitNaming:       turnaround.DefaultNaming(),
		Turnaround:        turnaround.DefaultConfig(),
		DirectionSuffixes: routes.DefaultDirectionSuffixes,
		ClusterTolerance:  stopindex.DefaultClusterTolerance,
	}
}

// SplitLine records a line that was cut at its turnaround.
type SplitLine struct {
	Line      string               `json:"line"`
	Outbound  string               `json:"outbound"`
	Inbound   string               `json:"inbound"`
	Detection turnaround.Detection `json:"detection"`
}

// Unsplit records a line for which a split was asked but not made.
type Unsplit struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result is the outcome of one run.
type Result struct {
	RunID      string
	Collection export.Collection
	Splits     []SplitLine
	Unsplit    []Unsplit
	Report     stopindex.Report
	Clusters   [][]string
	Stops      int
	Duration   time.Duration
}

// Pipeline builds collections. It is safe for concurrent use.
type Pipeline struct {
	opts     Options
	detector *turnaround.Detector
	metrics  *metrics.Metrics
	clock    clock.Clock
	logger   *slog.Logger
}

// New validates opts and returns a pipeline. m may be nil.
func New(opts Options, m *metrics.Metrics, c clock.Clock, logger *slog.Logger) (*Pipeline, error) {
	detector, err := turnaround.NewDetector(opts.Turnaround)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Naming == (routes.Naming{}) {
		opts.Naming = routes.DefaultNaming()
	}
	if opts.SplitNaming == (turnaround.Naming{}) {
		opts.SplitNaming = turnaround.DefaultNaming()
	}
	if opts.DirectionSuffixes == nil {
		opts.DirectionSuffixes = routes.DefaultDirectionSuffixes
	}
	if c == nil {
		c = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:     opts,
		detector: detector,
		metrics:  m,
		clock:    c,
		logger:   logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Detector returns the turnaround detector used by the pipeline.
func (p *Pipeline) Detector() *turnaround.Detector {
	return p.detector
}

// Options returns the options with defaults filled in.
func (p *Pipeline) Options() Options {
	return p.opts
}

type job struct {
	name string
	// base is the name split segments are derived from.
	base       string
	ids        []string
	membership string
	coords     []geo.Coordinate
	// reverse, when set, adds the reversed line under this name.
	reverse string
	split   bool
}

type outcome struct {
	lines   []routes.Polyline
	missing []string
	split   *SplitLine
	unsplit *Unsplit
}

func (p *Pipeline) jobs(idx *stopindex.Index, plan Plan) []job {
	var jobs []job
	for _, l := range plan.Lines {
		jobs = append(jobs, job{
			name:  l.Name,
			base:  routes.TrimDirection(l.Name, p.opts.DirectionSuffixes),
			ids:   l.StopIDs,
			split: l.Split,
		})
	}
	if plan.Membership {
		for _, route := range idx.RouteNames() {
			jobs = append(jobs, job{
				name:       route + p.opts.Naming.Forward,
				base:       route,
				membership: route,
				reverse:    route + p.opts.Naming.Reverse,
				split:      plan.SplitMembership,
			})
		}
	}
	for _, s := range plan.Sequences {
		suffix := p.opts.Naming.Forward
		if s.Direction == 1 {
			suffix = p.opts.Naming.Reverse
		}
		jobs = append(jobs, job{name: s.Route + suffix, base: s.Route, ids: s.StopIDs})
	}
	for _, t := range plan.Traces {
		jobs = append(jobs, job{
			name:   t.Name,
			base:   routes.TrimDirection(t.Name, p.opts.DirectionSuffixes),
			coords: t.Coords,
			split:  plan.SplitTraces,
		})
	}
	return jobs
}

// Run builds every line of plan against idx. report is the parse report of
// idx and is carried into the result. Lines are built concurrently but the
// collection keeps plan order.
func (p *Pipeline) Run(ctx context.Context, idx *stopindex.Index, report stopindex.Report, plan Plan) (*Result, error) {
	start := p.clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))

	jobs := p.jobs(idx, plan)
	outcomes := make([]outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := p.process(j, idx)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	res := &Result{
		RunID:    runID,
		Report:   report,
		Stops:    idx.Len(),
		Clusters: idx.Clusters(p.opts.ClusterTolerance),
	}
	seen := make(map[string]bool)
	for i, o := range outcomes {
		for _, l := range o.lines {
			if seen[l.Name] {
				logger.Warn("duplicate_line_name", slog.String("line", l.Name))
			}
			seen[l.Name] = true
		}
		res.Collection.Lines = append(res.Collection.Lines, o.lines...)
		if len(o.missing) > 0 {
			res.Collection.Missing = append(res.Collection.Missing,
				export.Missing{Line: jobs[i].name, StopIDs: o.missing})
		}
		if o.split != nil {
			res.Splits = append(res.Splits, *o.split)
		}
		if o.unsplit != nil {
			res.Unsplit = append(res.Unsplit, *o.unsplit)
		}
	}

	end := p.clock.Now()
	res.Collection.GeneratedAt = end
	res.Duration = end.Sub(start)
	p.record(res, end)

	logger.Info("pipeline_run_completed",
		slog.Int("stops", res.Stops),
		slog.Int("lines", len(res.Collection.Lines)),
		slog.Int("missing", res.Collection.MissingCount()),
		slog.Int("splits", len(res.Splits)),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (p *Pipeline) process(j job, idx *stopindex.Index) (outcome, error) {
	var (
		o    outcome
		line routes.Polyline
	)
	switch {
	case j.membership != "":
		line = routes.BuildFromMembership(j.membership, idx)
		if line.Len() == 0 {
			return o, nil
		}
		line.Name = j.name
	case j.ids != nil:
		line, o.missing = routes.Build(j.name, j.ids, idx)
	default:
		line = routes.Polyline{Name: j.name, Coords: j.coords}
	}

	if j.split {
		s, err := p.detector.Split(line.Coords)
		switch {
		case err == nil:
			out, in := p.opts.SplitNaming.Names(j.base)
			o.lines = []routes.Polyline{
				{Name: out, Coords: s.Outbound.Coords},
				{Name: in, Coords: s.Inbound.Coords},
			}
			o.split = &SplitLine{Line: j.name, Outbound: out, Inbound: in, Detection: s.Detection}
			return o, nil
		case errors.Is(err, turnaround.ErrNoSplitFound), errors.Is(err, turnaround.ErrInsufficientData):
			o.unsplit = &Unsplit{Line: j.name, Reason: err.Error(), Err: err}
		default:
			return o, fmt.Errorf("splitting %s: %w", j.name, err)
		}
	}

	o.lines = append(o.lines, line)
	if j.reverse != "" {
		o.lines = append(o.lines, line.Reversed(j.reverse))
	}
	return o, nil
}

func (p *Pipeline) record(res *Result, finished time.Time) {
	m := p.metrics
	if m == nil {
		return
	}
	m.StopsIndexed.Set(float64(res.Stops))
	for reason, n := range res.Report.CountByReason() {
		m.RecordsOmittedTotal.WithLabelValues(string(reason)).Add(float64(n))
	}
	m.DuplicateStopsTotal.Add(float64(len(res.Report.Duplicates)))
	m.LinesBuiltTotal.Add(float64(len(res.Collection.Lines)))
	m.MissingStopsTotal.Add(float64(res.Collection.MissingCount()))
	m.TurnaroundsTotal.WithLabelValues(metrics.OutcomeSplit).Add(float64(len(res.Splits)))
	for _, u := range res.Unsplit {
		outcome := metrics.OutcomeNoSplit
		if errors.Is(u.Err, turnaround.ErrInsufficientData) {
			outcome = metrics.OutcomeInsufficient
		}
		m.TurnaroundsTotal.WithLabelValues(outcome).Inc()
	}
	m.ObserveRun(res.Duration, finished)
}
