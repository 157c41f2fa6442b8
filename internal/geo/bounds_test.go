package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsContains(t *testing.T) {
	b := DefaultBounds()

	tests := []struct {
		name     string
		lat      float64
		lng      float64
		expected bool
	}{
		{"Inside", 39.90, 41.25, true},
		{"South-west corner", 38, 39, true},
		{"North-east corner", 42.5, 44, true},
		{"On the western edge", 40, 39, true},
		{"Just south", 37.999999, 41, false},
		{"Just north", 42.500001, 41, false},
		{"Just west", 40, 38.999999, false},
		{"Just east", 40, 44.000001, false},
		{"Swapped lat/lng", 41.25, 39.90, true},
		{"Zero", 0, 0, false},
		{"NaN latitude", math.NaN(), 41, false},
		{"Infinite longitude", 40, math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.Contains(tt.lat, tt.lng))
			assert.Equal(t, tt.expected, b.ContainsCoordinate(Coordinate{tt.lat, tt.lng}))
		})
	}
}

func TestBoundsContains_CustomRegion(t *testing.T) {
	// the same validator serves another region purely through configuration
	b := Bounds{MinLat: 40.9, MaxLat: 41.3, MinLng: 28.6, MaxLng: 29.4}

	assert.True(t, b.Contains(41.0082, 28.9784))
	assert.False(t, b.Contains(39.90, 41.25))
	assert.False(t, b.IsZero())
	assert.True(t, Bounds{}.IsZero())
}

func TestComputeRegion(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, ComputeRegion())
		assert.Nil(t, ComputeRegion(nil, []Coordinate{}))
	})

	t.Run("Single point", func(t *testing.T) {
		region := ComputeRegion([]Coordinate{{39.9, 41.2}})
		require.NotNil(t, region)
		assert.Equal(t, 39.9, region.Lat)
		assert.Equal(t, 41.2, region.Lng)
		assert.Equal(t, 0.0, region.LatSpan)
		assert.Equal(t, 0.0, region.LngSpan)
	})

	t.Run("Across paths", func(t *testing.T) {
		region := ComputeRegion(
			[]Coordinate{{39.0, 41.0}, {39.5, 41.5}},
			[]Coordinate{{40.0, 40.5}},
		)
		require.NotNil(t, region)
		assert.InDelta(t, 39.5, region.Lat, 1e-9)
		assert.InDelta(t, 41.0, region.Lng, 1e-9)
		assert.InDelta(t, 1.0, region.LatSpan, 1e-9)
		assert.InDelta(t, 1.0, region.LngSpan, 1e-9)
	})
}

func TestSearchBox(t *testing.T) {
	center := Coordinate{39.9, 41.25}
	min, max := SearchBox(center, 500)

	// x is longitude, y is latitude
	assert.Less(t, min[0], center.Lng)
	assert.Greater(t, max[0], center.Lng)
	assert.Less(t, min[1], center.Lat)
	assert.Greater(t, max[1], center.Lat)

	// every edge midpoint is at least the radius away from the center
	assert.GreaterOrEqual(t, Haversine(center, Coordinate{max[1], center.Lng}), 499.0)
	assert.GreaterOrEqual(t, Haversine(center, Coordinate{center.Lat, max[0]}), 499.0)
}
