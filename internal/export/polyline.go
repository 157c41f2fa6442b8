package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// PolylineExporter writes {"<name>": "<encoded polyline>", ...}.
type PolylineExporter struct {
	Path string
}

func (e *PolylineExporter) Export(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFile(e.Path, func(w io.Writer) error {
		return writeObject(w, len(c.Lines), func(i int) (string, any) {
			return c.Lines[i].Name, c.Lines[i].Encode()
		})
	}); err != nil {
		return err
	}
	return writeMissingReport(e.Path, c)
}

// ReadPolylines reads a polyline export back into lines.
func ReadPolylines(r io.Reader) ([]routes.Polyline, error) {
	var lines []routes.Polyline
	err := decodeObject(r, func(name string, dec *json.Decoder) error {
		var encoded string
		if err := dec.Decode(&encoded); err != nil {
			return fmt.Errorf("line %s: %w", name, err)
		}
		p, err := routes.Decode(name, encoded)
		if err != nil {
			return err
		}
		lines = append(lines, p)
		return nil
	})
	return lines, err
}
