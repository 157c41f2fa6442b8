package geo

import "math"

// Bounds is a closed latitude/longitude box describing the operating region.
type Bounds struct {
	MinLat float64 `yaml:"minLat" json:"minLat" validate:"gte=-90,lte=90,ltefield=MaxLat"`
	MaxLat float64 `yaml:"maxLat" json:"maxLat" validate:"gte=-90,lte=90"`
	MinLng float64 `yaml:"minLng" json:"minLng" validate:"gte=-180,lte=180,ltefield=MaxLng"`
	MaxLng float64 `yaml:"maxLng" json:"maxLng" validate:"gte=-180,lte=180"`
}

// DefaultBounds covers the Erzurum operating region.
func DefaultBounds() Bounds {
	return Bounds{
		MinLat: 38,
		MaxLat: 42.5,
		MinLng: 39,
		MaxLng: 44,
	}
}

// Contains reports whether (lat, lng) lies inside the box. Edges are inside;
// NaN and infinities never are.
func (b Bounds) Contains(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= b.MinLat && lat <= b.MaxLat &&
		lng >= b.MinLng && lng <= b.MaxLng
}

// ContainsCoordinate is Contains for a Coordinate.
func (b Bounds) ContainsCoordinate(c Coordinate) bool {
	return b.Contains(c.Lat, c.Lng)
}

// IsZero reports whether the box was left unset.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Region is the center and span of a set of points, the shape a map client
// needs to frame the network on first load.
type Region struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lon"`
	LatSpan float64 `json:"latSpan"`
	LngSpan float64 `json:"lonSpan"`
}

// ComputeRegion calculates the region covered by every point of every path.
// Returns nil if there are no points at all.
func ComputeRegion(paths ...[]Coordinate) *Region {
	var minLat, maxLat, minLng, maxLng float64
	first := true

	for _, path := range paths {
		for _, point := range path {
			if first {
				minLat, maxLat = point.Lat, point.Lat
				minLng, maxLng = point.Lng, point.Lng
				first = false
				continue
			}

			minLat = math.Min(minLat, point.Lat)
			maxLat = math.Max(maxLat, point.Lat)
			minLng = math.Min(minLng, point.Lng)
			maxLng = math.Max(maxLng, point.Lng)
		}
	}

	if first {
		return nil
	}

	return &Region{
		Lat:     (minLat + maxLat) / 2,
		Lng:     (minLng + maxLng) / 2,
		LatSpan: maxLat - minLat,
		LngSpan: maxLng - minLng,
	}
}

// SearchBox returns the box enclosing a circle of radius meters around c.
// Used to pre-filter spatial queries before the exact distance check.
func SearchBox(c Coordinate, radius float64) (min, max [2]float64) {
	latOffset := radius / EarthRadiusMeters * 180 / math.Pi
	lngRadius := math.Cos(toRadians(c.Lat)) * EarthRadiusMeters
	lngOffset := 180.0
	if lngRadius > 0 {
		lngOffset = radius / lngRadius * 180 / math.Pi
	}
	return [2]float64{c.Lng - lngOffset, c.Lat - latOffset},
		[2]float64{c.Lng + lngOffset, c.Lat + latOffset}
}
