// Package export writes computed route lines to the formats consumed by the
// mobile client and by downstream tooling, and reads traces back from them.
package export

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// Missing lists the requested stop ids of one line that had no stop.
type Missing struct {
	Line    string   `json:"line"`
	StopIDs []string `json:"stopIds"`
}

// Collection is everything an exporter writes: named lines in output order
// plus the missing-stop report, which is always kept apart from the
// coordinate payload.
type Collection struct {
	Lines       []routes.Polyline
	Missing     []Missing
	GeneratedAt time.Time
}

// MissingCount returns the total number of missing stop ids.
func (c Collection) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		n += len(m.StopIDs)
	}
	return n
}

// Names returns the line names in order.
func (c Collection) Names() []string {
	names := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		names[i] = l.Name
	}
	return names
}

// Exporter writes a collection somewhere.
type Exporter interface {
	Export(ctx context.Context, c Collection) error
}

// Format names a supported output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatBusLines Format = "buslines"
	FormatDart     Format = "dart"
	FormatGeoJSON  Format = "geojson"
	FormatPolyline Format = "polyline"
	FormatSQLite   Format = "sqlite"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatBusLines, FormatDart, FormatGeoJSON, FormatPolyline, FormatSQLite}

// ErrUnknownFormat is returned by New for a format not in Formats.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Options carries the format specific settings of New.
type Options struct {
	// BusLineSuffixes are stripped from line names by the buslines format.
	BusLineSuffixes []string
}

// New returns the exporter for format writing to path.
func New(format Format, path string, opts Options) (Exporter, error) {
	if path == "" {
		return nil, fmt.Errorf("export %s: empty output path", format)
	}
	switch format {
	case FormatJSON:
		return &JSONExporter{Path: path}, nil
	case FormatBusLines:
		suffixes := opts.BusLineSuffixes
		if suffixes == nil {
			suffixes = routes.BusLineSuffixes
		}
		return &BusLinesExporter{Path: path, Suffixes: suffixes}, nil
	case FormatDart:
		return &DartExporter{Path: path}, nil
	case FormatGeoJSON:
		return &GeoJSONExporter{Path: path}, nil
	case FormatPolyline:
		return &PolylineExporter{Path: path}, nil
	case FormatSQLite:
		return &SQLiteExporter{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Multi exports the same collection with every exporter, in order, stopping
// at the first failure.
type Multi []Exporter

func (m Multi) Export(ctx context.Context, c Collection) error {
	for _, e := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Export(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
