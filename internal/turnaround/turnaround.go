// Package turnaround finds the point where a round-trip trace turns back and
// splits the trace into its outbound and inbound halves.
//
// A trace turns around where a point and the point Lookahead steps ahead of it
// are unusually close: on a straight run they are roughly Lookahead average
// steps apart, while near the turning point the path folds back on itself.
package turnaround

import (
	"errors"
	"fmt"
	"slices"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

var (
	// ErrInsufficientData is returned for sequences with fewer than two points.
	ErrInsufficientData = errors.New("turnaround: at least two coordinates are required")
	// ErrNoSplitFound means no turnaround was detected; the trace stays whole.
	ErrNoSplitFound = errors.New("turnaround: no turnaround point found")
)

// Config tunes the detector.
type Config struct {
	// Lookahead is how many points ahead each point is compared with.
	Lookahead int `yaml:"lookahead" json:"lookahead" validate:"gte=1"`
	// ThresholdFactor scales the average step into the distance under which
	// the trace counts as folded back.
	ThresholdFactor float64 `yaml:"thresholdFactor" json:"thresholdFactor" validate:"gt=0"`
	// ConfirmRun is how many consecutive indices must stay under the threshold
	// before the first of them is accepted.
	ConfirmRun int `yaml:"confirmRun" json:"confirmRun" validate:"gte=1"`
}

// DefaultConfig returns lookahead 10, factor 2 and no confirmation run.
func DefaultConfig() Config {
	return Config{
		Lookahead:       10,
		ThresholdFactor: 2.0,
		ConfirmRun:      1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Lookahead < 1 {
		errs = append(errs, fmt.Errorf("lookahead must be at least 1, got %d", c.Lookahead))
	}
	if !(c.ThresholdFactor > 0) {
		errs = append(errs, fmt.Errorf("threshold factor must be positive, got %v", c.ThresholdFactor))
	}
	if c.ConfirmRun < 1 {
		errs = append(errs, fmt.Errorf("confirm run must be at least 1, got %d", c.ConfirmRun))
	}
	return errors.Join(errs...)
}

// Direction tags a segment of a split trace.
type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Segment is a contiguous part of a split trace.
type Segment struct {
	Direction Direction        `json:"direction"`
	Coords    []geo.Coordinate `json:"coords"`
	Points    int              `json:"points"`
}

// Detection describes where a turnaround was found.
type Detection struct {
	// Index is the first point of the inbound half.
	Index int `json:"index"`
	// AvgStep is the mean distance between consecutive points, in meters.
	AvgStep float64 `json:"avgStep"`
	// Threshold is AvgStep times the threshold factor.
	Threshold float64 `json:"threshold"`
	// Ahead is the distance from Index to the point Lookahead steps later.
	Ahead float64 `json:"ahead"`
}

// Split is a trace cut at its turnaround. Outbound followed by Inbound is the
// original trace.
type Split struct {
	Detection
	Outbound Segment `json:"outbound"`
	Inbound  Segment `json:"inbound"`
}

// Detector finds turnaround points. It holds no state besides its
// configuration and is safe for concurrent use.
type Detector struct {
	config Config
}

// NewDetector validates config and returns a detector using it.
func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turnaround config: %w", err)
	}
	return &Detector{config: config}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect returns the turnaround of seq. It fails with ErrInsufficientData for
// fewer than two points and with ErrNoSplitFound when the trace is too short
// for the lookahead or never folds back.
//
// The returned index is the first point whose partner Lookahead points ahead
// lies within the threshold. On a clean out-and-back trace those partners
// meet before the true turning point, so the split lands up to Lookahead
// points early: 34 rather than 40 for forty points and back with lookahead
// 10. The outbound and inbound halves still cover every point.
func (d *Detector) Detect(seq []geo.Coordinate) (Detection, error) {
	if len(seq) < 2 {
		return Detection{}, ErrInsufficientData
	}

	avgStep := mean(geo.StepDistances(seq))
	threshold := avgStep * d.config.ThresholdFactor

	lookahead := d.config.Lookahead
	if len(seq) <= 2*lookahead {
		return Detection{AvgStep: avgStep, Threshold: threshold}, ErrNoSplitFound
	}

	last := len(seq) - lookahead - 1
	run := 0
	for i := lookahead; i <= last; i++ {
		if geo.Haversine(seq[i], seq[i+lookahead]) < threshold {
			run++
		} else {
			run = 0
		}
		if run == d.config.ConfirmRun {
			start := i - run + 1
			return Detection{
				Index:     start,
				AvgStep:   avgStep,
				Threshold: threshold,
				Ahead:     geo.Haversine(seq[start], seq[start+lookahead]),
			}, nil
		}
	}

	return Detection{AvgStep: avgStep, Threshold: threshold}, ErrNoSplitFound
}

// Split detects the turnaround of seq and cuts it there. The returned segments
// do not share memory with seq.
func (d *Detector) Split(seq []geo.Coordinate) (Split, error) {
	det, err := d.Detect(seq)
	if err != nil {
		return Split{}, err
	}
	return cut(seq, det), nil
}

func cut(seq []geo.Coordinate, det Detection) Split {
	outbound := slices.Clone(seq[:det.Index])
	inbound := slices.Clone(seq[det.Index:])
	return Split{
		Detection: det,
		Outbound:  Segment{Direction: Outbound, Coords: outbound, Points: len(outbound)},
		Inbound:   Segment{Direction: Inbound, Coords: inbound, Points: len(inbound)},
	}
}

// Naming holds the suffixes for the two halves of a split trace.
type Naming struct {
	Outbound string `yaml:"outbound" json:"outbound" validate:"required,nefield=Inbound"`
	Inbound  string `yaml:"inbound" json:"inbound" validate:"required"`
}

// DefaultNaming returns the suffixes used by the mobile client.
func DefaultNaming() Naming {
	return Naming{Outbound: "Gidis", Inbound: "Donus"}
}

// Names returns the outbound and inbound names for a trace called base.
func (n Naming) Names(base string) (string, string) {
	return base + n.Outbound, base + n.Inbound
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
