package export

import (
	"context"
	"io"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// BusLine is one entry of the bus_lines.json file read by the mobile client.
type BusLine struct {
	Line  string           `json:"line"`
	Stops []geo.Coordinate `json:"stops"`
}

// BusLinesExporter writes {"<base>": {"line": "<base>", "stops": [...]}}
// where base is the line name with its direction suffix removed. A line whose
// base is already taken by an earlier line keeps its full name. Lines without
// points are left out.
type BusLinesExporter struct {
	Path     string
	Suffixes []string
}

func (e *BusLinesExporter) Export(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := BusLines(c.Lines, e.Suffixes)
	return writeFile(e.Path, func(w io.Writer) error {
		return writeObject(w, len(entries), func(i int) (string, any) {
			return entries[i].Line, entries[i]
		})
	})
}

// BusLines names every line by its base, in line order. A repeated line name
// replaces the stops of its entry. A line whose full name equals a base
// already claimed by another line takes that key, and the other line moves to
// its own full name.
func BusLines(lines []routes.Polyline, suffixes []string) []BusLine {
	var (
		out    []BusLine
		names  []string
		byName = make(map[string]int)
		byKey  = make(map[string]int)
	)
	for _, l := range lines {
		if len(l.Coords) == 0 {
			continue
		}
		if i, ok := byName[l.Name]; ok {
			out[i].Stops = l.Coords
			continue
		}

		key := routes.TrimDirection(l.Name, suffixes)
		if _, taken := byKey[key]; taken {
			key = l.Name
			if i, taken := byKey[key]; taken {
				out[i].Line = names[i]
				byKey[names[i]] = i
			}
		}
		byKey[key] = len(out)
		byName[l.Name] = len(out)
		names = append(names, l.Name)
		out = append(out, BusLine{Line: key, Stops: l.Coords})
	}
	return out
}
