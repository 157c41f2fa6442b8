package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// DartExporter writes one `final List<LatLng> NAME = [...];` declaration per
// line, the form the Flutter client compiles in.
type DartExporter struct {
	Path string
}

func (e *DartExporter) Export(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(e.Path, func(w io.Writer) error {
		return WriteDart(w, c.Lines)
	})
}

// WriteDart writes lines as Dart declarations.
func WriteDart(w io.Writer, lines []routes.Polyline) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		fmt.Fprintf(bw, "final List<LatLng> %s = [\n", DartIdentifier(l.Name))
		for i, c := range l.Coords {
			fmt.Fprintf(bw, "  LatLng(%s, %s)", formatFloat(c.Lat), formatFloat(c.Lng))
			if i < len(l.Coords)-1 {
				bw.WriteString(",")
			}
			bw.WriteString("\n")
		}
		bw.WriteString("];\n\n")
	}
	return bw.Flush()
}

// DartIdentifier turns name into a valid Dart identifier: characters outside
// [A-Za-z0-9_] become underscores and a leading digit gets an "L" prefix.
func DartIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "L" + id
	}
	return id
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var (
	dartListPattern   = regexp.MustCompile(`(?s)final\s+List<LatLng>\s+([A-Za-z0-9_]+)\s*=\s*\[(.*?)\];`)
	dartLatLngPattern = regexp.MustCompile(`LatLng\(([^,]+),\s*([^)]+)\)`)
)

// ReadDart parses every LatLng list declared in a Dart source file. Lists
// without points are skipped.
func ReadDart(r io.Reader) ([]routes.Polyline, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dart source: %w", err)
	}

	var lines []routes.Polyline
	for _, m := range dartListPattern.FindAllSubmatch(src, -1) {
		name := string(m[1])
		var coords []geo.Coordinate
		for _, p := range dartLatLngPattern.FindAllSubmatch(m[2], -1) {
			lat, err := strconv.ParseFloat(strings.TrimSpace(string(p[1])), 64)
			if err != nil {
				return nil, fmt.Errorf("line %s: latitude %q: %w", name, p[1], err)
			}
			lng, err := strconv.ParseFloat(strings.TrimSpace(string(p[2])), 64)
			if err != nil {
				return nil, fmt.Errorf("line %s: longitude %q: %w", name, p[2], err)
			}
			coords = append(coords, geo.Coordinate{Lat: lat, Lng: lng})
		}
		if len(coords) > 0 {
			lines = append(lines, routes.Polyline{Name: name, Coords: coords})
		}
	}
	return lines, nil
}
