package export

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// JSONExporter writes {"<name>": [[lat, lng], ...], ...} with lines in
// collection order. When stops are missing, a "<name>.missing.json" report
// is written next to it; a stale report from an earlier run is removed.
type JSONExporter struct {
	Path string
}

func (e *JSONExporter) Export(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := writeFile(e.Path, func(w io.Writer) error {
		return writeObject(w, len(c.Lines), func(i int) (string, any) {
			coords := c.Lines[i].Coords
			if coords == nil {
				coords = []geo.Coordinate{}
			}
			return c.Lines[i].Name, coords
		})
	})
	if err != nil {
		return err
	}
	return writeMissingReport(e.Path, c)
}

// MissingReport is the content of the companion missing-stop file.
type MissingReport struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Missing     []Missing `json:"missing"`
}

func writeMissingReport(path string, c Collection) error {
	reportPath := SiblingPath(path, "missing")
	if c.MissingCount() == 0 {
		return removeIfExists(reportPath)
	}
	report := MissingReport{
		GeneratedAt: c.GeneratedAt,
		Total:       c.MissingCount(),
		Missing:     c.Missing,
	}
	return writeFile(reportPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}

// writeObject writes a JSON object with n members in the given order, one
// member per line.
func writeObject(w io.Writer, n int, member func(i int) (string, any)) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("{"); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, value := member(i)
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		sep := ",\n  "
		if i == 0 {
			sep = "\n  "
		}
		bw.WriteString(sep)
		bw.Write(k)
		bw.WriteString(": ")
		bw.Write(v)
	}
	if n > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// ReadJSONLines reads a json export back into lines, keeping the order of the
// object members.
func ReadJSONLines(r io.Reader) ([]routes.Polyline, error) {
	var lines []routes.Polyline
	err := decodeObject(r, func(name string, dec *json.Decoder) error {
		var coords []geo.Coordinate
		if err := dec.Decode(&coords); err != nil {
			return fmt.Errorf("line %s: %w", name, err)
		}
		lines = append(lines, routes.Polyline{Name: name, Coords: coords})
		return nil
	})
	return lines, err
}

var errNotObject = errors.New("expected a JSON object")

// decodeObject streams the members of a top-level JSON object in order.
func decodeObject(r io.Reader, member func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading lines: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading lines: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return errNotObject
		}
		if err := member(key, dec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading lines: %w", err)
	}
	return nil
}
