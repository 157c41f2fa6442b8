// Package stopindex turns noisy stop listings (free text, JSON records or a GTFS
// feed) into a validated, immutable index of stops keyed by id.
package stopindex

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// Stop is a geolocated stop. Routes lists the route names it belongs to, when
// the source carries that information.
type Stop struct {
	ID         string         `json:"id"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Name       string         `json:"name,omitempty"`
	Routes     []string       `json:"routes,omitempty"`
}

// HasRoute reports whether the stop is a member of route.
func (s Stop) HasRoute(route string) bool {
	return slices.Contains(s.Routes, route)
}

// MergePolicy decides which record wins when the same id appears twice.
type MergePolicy string

const (
	// KeepLast lets later records overwrite earlier ones. This is the default.
	KeepLast MergePolicy = "keepLast"
	// KeepFirst ignores every record after the first for a given id.
	KeepFirst MergePolicy = "keepFirst"
)

// ParseMergePolicy accepts the configuration spelling of a policy; empty means KeepLast.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", strings.ToLower(string(KeepLast)), "last":
		return KeepLast, nil
	case strings.ToLower(string(KeepFirst)), "first":
		return KeepFirst, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (want %s or %s)", s, KeepLast, KeepFirst)
	}
}

// Builder accumulates stops and produces an Index. A Builder is not safe for
// concurrent use; the Index it builds is.
type Builder struct {
	policy     MergePolicy
	bounds     geo.Bounds
	order      []string
	stops      map[string]Stop
	duplicates []string
}

// NewBuilder returns a builder that validates coordinates against bounds and
// resolves duplicate ids with policy.
func NewBuilder(bounds geo.Bounds, policy MergePolicy) *Builder {
	if policy == "" {
		policy = KeepLast
	}
	return &Builder{
		policy: policy,
		bounds: bounds,
		stops:  make(map[string]Stop),
	}
}

// Bounds returns the validation box of the builder.
func (b *Builder) Bounds() geo.Bounds {
	return b.bounds
}

// Valid reports whether c may enter the index.
func (b *Builder) Valid(c geo.Coordinate) bool {
	return b.bounds.ContainsCoordinate(c)
}

// Add inserts s. It returns false when the coordinate is outside the bounds and
// the stop was not added. A duplicate id keeps the position of its first
// appearance; whether its value is replaced depends on the merge policy.
func (b *Builder) Add(s Stop) bool {
	if !b.Valid(s.Coordinate) {
		return false
	}
	if _, exists := b.stops[s.ID]; exists {
		b.duplicates = append(b.duplicates, s.ID)
		if b.policy == KeepFirst {
			return true
		}
	} else {
		b.order = append(b.order, s.ID)
	}
	s.Routes = slices.Clone(s.Routes)
	b.stops[s.ID] = s
	return true
}

// Duplicates lists every id that was added more than once, once per repeat.
func (b *Builder) Duplicates() []string {
	return slices.Clone(b.duplicates)
}

// Build freezes the accumulated stops into an Index. The builder may keep
// being used afterwards without affecting the returned index.
func (b *Builder) Build() *Index {
	idx := &Index{
		order: slices.Clone(b.order),
		stops: make(map[string]Stop, len(b.stops)),
		pos:   make(map[string]int, len(b.order)),
	}
	for i, id := range idx.order {
		s := b.stops[id]
		idx.stops[id] = s
		idx.pos[id] = i
		pt := [2]float64{s.Coordinate.Lng, s.Coordinate.Lat}
		idx.tree.Insert(pt, pt, id)
	}
	return idx
}

// Index maps stop ids to stops. It is immutable once built, iterates in order
// of first appearance in the input and is safe for concurrent readers.
type Index struct {
	order []string
	stops map[string]Stop
	pos   map[string]int
	tree  rtree.RTreeG[string]
}

// Len returns the number of stops.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// Get looks up a stop by id.
func (idx *Index) Get(id string) (Stop, bool) {
	if idx == nil {
		return Stop{}, false
	}
	s, ok := idx.stops[id]
	if ok {
		s.Routes = slices.Clone(s.Routes)
	}
	return s, ok
}

// IDs returns the stop ids in iteration order.
func (idx *Index) IDs() []string {
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.order)
}

// Stops returns every stop in iteration order.
func (idx *Index) Stops() []Stop {
	if idx == nil {
		return nil
	}
	out := make([]Stop, 0, len(idx.order))
	for _, id := range idx.order {
		s, _ := idx.Get(id)
		out = append(out, s)
	}
	return out
}

// RouteNames returns the distinct route names referenced by the stops, in order
// of first appearance.
func (idx *Index) RouteNames() []string {
	if idx == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, id := range idx.order {
		for _, r := range idx.stops[id].Routes {
			if !seen[r] {
				seen[r] = true
				names = append(names, r)
			}
		}
	}
	return names
}

// Coordinates returns the coordinate of every stop in iteration order.
func (idx *Index) Coordinates() []geo.Coordinate {
	if idx == nil {
		return nil
	}
	out := make([]geo.Coordinate, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.stops[id].Coordinate)
	}
	return out
}
