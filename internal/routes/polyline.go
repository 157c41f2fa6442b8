// Package routes assembles ordered route polylines from a stop index.
package routes

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// Polyline is the ordered coordinate sequence of one named route direction.
type Polyline struct {
	Name   string           `json:"name"`
	Coords []geo.Coordinate `json:"coords"`
}

// Len returns the number of points.
func (p Polyline) Len() int {
	return len(p.Coords)
}

// Length returns the length of the line in meters.
func (p Polyline) Length() float64 {
	return geo.PathLength(p.Coords)
}

// Reversed returns the line traversed in the opposite direction under name.
func (p Polyline) Reversed(name string) Polyline {
	return Polyline{Name: name, Coords: Reverse(p.Coords)}
}

// Encode returns the Google encoded polyline form of the line.
func (p Polyline) Encode() string {
	coords := make([][]float64, len(p.Coords))
	for i, c := range p.Coords {
		coords[i] = []float64{c.Lat, c.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// Decode parses an encoded polyline into a line called name.
func Decode(name, encoded string) (Polyline, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return Polyline{}, fmt.Errorf("decoding polyline %s: %w", name, err)
	}
	if len(rest) != 0 {
		return Polyline{}, fmt.Errorf("decoding polyline %s: %d trailing bytes", name, len(rest))
	}
	p := Polyline{Name: name, Coords: make([]geo.Coordinate, 0, len(coords))}
	for _, c := range coords {
		p.Coords = append(p.Coords, geo.Coordinate{Lat: c[0], Lng: c[1]})
	}
	return p, nil
}

// Reverse returns a new slice holding coords in reverse order.
func Reverse(coords []geo.Coordinate) []geo.Coordinate {
	return geo.Reverse(coords)
}
