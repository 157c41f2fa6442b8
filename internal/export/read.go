package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
)

// ReadFile reads lines back from a dart, json or polyline export at path,
// gzipped or not. Members of a JSON object may hold either a coordinate list
// or an encoded polyline.
func ReadFile(path string) ([]routes.Polyline, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(rc, nil, path)

	if strings.HasSuffix(strings.TrimSuffix(strings.ToLower(path), ".gz"), ".dart") {
		lines, err := ReadDart(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return lines, nil
	}

	var lines []routes.Polyline
	err = decodeObject(rc, func(name string, dec *json.Decoder) error {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("line %s: %w", name, err)
		}
		var encoded string
		if json.Unmarshal(raw, &encoded) == nil {
			p, err := routes.Decode(name, encoded)
			if err != nil {
				return err
			}
			lines = append(lines, p)
			return nil
		}
		var coords []geo.Coordinate
		if err := json.Unmarshal(raw, &coords); err != nil {
			return fmt.Errorf("line %s: %w", name, err)
		}
		lines = append(lines, routes.Polyline{Name: name, Coords: coords})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}
