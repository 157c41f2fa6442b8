package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/source"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

// SourceFormat selects the parser used for an input.
type SourceFormat string

const (
	FormatText    SourceFormat = "text"
	FormatRecords SourceFormat = "records"
	FormatGTFS    SourceFormat = "gtfs"
)

// Source is one stop input.
type Source struct {
	Location string       `yaml:"location" json:"location" validate:"required"`
	Format   SourceFormat `yaml:"format" json:"format,omitempty" validate:"omitempty,oneof=text records gtfs"`
}

// ResolvedFormat returns Format, or a guess from the location's extension
// when it is empty: .zip is GTFS, .json is records, anything else is text.
func (s Source) ResolvedFormat() SourceFormat {
	if s.Format != "" {
		return s.Format
	}
	loc := strings.TrimSuffix(strings.ToLower(s.Location), ".gz")
	switch filepath.Ext(loc) {
	case ".zip":
		return FormatGTFS
	case ".json":
		return FormatRecords
	default:
		return FormatText
	}
}

// Indexing configures how inputs become a stop index.
type Indexing struct {
	Bounds  geo.Bounds
	Grammar stopindex.Grammar
	Policy  stopindex.MergePolicy
}

// DefaultIndexing returns the default bounds and grammar with KeepLast.
func DefaultIndexing() Indexing {
	return Indexing{
		Bounds:  geo.DefaultBounds(),
		Grammar: stopindex.DefaultGrammar(),
		Policy:  stopindex.KeepLast,
	}
}

// Loaded is the stop index built from a set of sources.
type Loaded struct {
	Index     *stopindex.Index
	Sequences []stopindex.Sequence
	Report    stopindex.Report
}

// Load fetches every source concurrently and feeds them into one index in the
// order given, so duplicates resolve the same way on every run. A source that
// cannot be read or is not parseable at all fails the load; bad records inside
// a source only end up in the report.
func Load(ctx context.Context, loader *source.Loader, sources []Source, opts Indexing, workers int) (*Loaded, error) {
	logger := logging.FromContext(ctx).With(slog.String("component", "pipeline_load"))

	if len(sources) == 0 {
		return nil, fmt.Errorf("no stop sources configured")
	}

	data := make([][]byte, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, src := range sources {
		g.Go(func() error {
			b, err := loader.Load(gctx, src.Location)
			if err != nil {
				return fmt.Errorf("loading %s: %w", src.Location, err)
			}
			data[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := stopindex.NewBuilder(opts.Bounds, opts.Policy)
	loaded := &Loaded{}
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			report stopindex.Report
			err    error
		)
		format := src.ResolvedFormat()
		switch format {
		case FormatText:
			p := &stopindex.TextParser{Grammar: opts.Grammar, Bounds: opts.Bounds, Policy: opts.Policy}
			report, err = p.ParseInto(builder, bytes.NewReader(data[i]))
		case FormatRecords:
			p := &stopindex.RecordParser{Bounds: opts.Bounds, Policy: opts.Policy}
			report, err = p.ParseInto(builder, bytes.NewReader(data[i]))
		case FormatGTFS:
			p := &stopindex.GTFSParser{Bounds: opts.Bounds, Policy: opts.Policy}
			var seqs []stopindex.Sequence
			seqs, report, err = p.ParseInto(builder, data[i])
			loaded.Sequences = append(loaded.Sequences, seqs...)
		default:
			err = fmt.Errorf("unknown source format %q", format)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", src.Location, err)
		}

		for _, o := range report.Omitted {
			o.Source = src.Location
		}
		loaded.Report.Merge(report)

		logging.LogOperation(logger, "source_parsed",
			slog.String("location", src.Location),
			slog.String("format", string(format)),
			slog.Int("bytes", len(data[i])),
			slog.Int("omitted", len(report.Omitted)))
	}

	loaded.Report.Duplicates = builder.Duplicates()
	loaded.Index = builder.Build()
	return loaded, nil
}
