package export

import (
	"context"
	"io"

	geojson "github.com/paulmach/go.geojson"
)

// GeoJSONExporter writes a FeatureCollection with one LineString per line.
// Positions are [lng, lat] as GeoJSON requires.
type GeoJSONExporter struct {
	Path string
}

func (e *GeoJSONExporter) Export(ctx context.Context, c Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := FeatureCollection(c).MarshalJSON()
	if err != nil {
		return err
	}
	if err := writeFile(e.Path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	return writeMissingReport(e.Path, c)
}

// FeatureCollection converts c to GeoJSON.
func FeatureCollection(c Collection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range c.Lines {
		coords := make([][]float64, len(l.Coords))
		for i, p := range l.Coords {
			coords[i] = []float64{p.Lng, p.Lat}
		}
		f := geojson.NewLineStringFeature(coords)
		f.ID = l.Name
		f.SetProperty("name", l.Name)
		f.SetProperty("points", len(l.Coords))
		f.SetProperty("lengthMeters", l.Length())
		fc.AddFeature(f)
	}
	return fc
}
