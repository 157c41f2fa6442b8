// Package geo holds the coordinate types and the spherical geometry used by the
// route pipeline: bounding-box validation, great-circle distance and region framing.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// EarthRadiusMeters is the sphere radius used for every great-circle distance.
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 position in decimal degrees. It has no identity beyond
// its position and marshals to the `[lat, lng]` pair mapping clients expect.
type Coordinate struct {
	Lat float64
	Lng float64
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinate must be a [lat, lng] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate must have exactly 2 elements, got %d", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lat, c.Lng)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Coordinate) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	deltaPhi := toRadians(b.Lat - a.Lat)
	deltaLambda := toRadians(b.Lng - a.Lng)

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	// rounding can push h a hair outside [0, 1] for antipodal or identical points
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// StepDistances returns the distance between every adjacent pair of coords,
// so the result has len(coords)-1 entries (none for fewer than two points).
func StepDistances(coords []Coordinate) []float64 {
	if len(coords) < 2 {
		return nil
	}
	steps := make([]float64, len(coords)-1)
	for i := 1; i < len(coords); i++ {
		steps[i-1] = Haversine(coords[i-1], coords[i])
	}
	return steps
}

// PathLength is the total length of the path through coords in meters.
func PathLength(coords []Coordinate) float64 {
	var total float64
	for _, d := range StepDistances(coords) {
		total += d
	}
	return total
}

// Reverse returns a new slice holding coords in reverse order. It is a purely
// structural operation; nothing is recomputed.
func Reverse(coords []Coordinate) []Coordinate {
	if coords == nil {
		return nil
	}
	out := make([]Coordinate, len(coords))
	for i, c := range coords {
		out[len(coords)-1-i] = c
	}
	return out
}
