package routes

import (
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

// Naming holds the suffixes appended to a route name for each direction of a
// membership-built line.
type Naming struct {
	Forward string `yaml:"forward" json:"forward" validate:"required,nefield=Reverse"`
	Reverse string `yaml:"reverse" json:"reverse" validate:"required"`
}

// DefaultNaming returns the suffixes used by the mobile client.
func DefaultNaming() Naming {
	return Naming{Forward: "Dogru", Reverse: "Ters"}
}

// Build looks up ids in idx in the given order. Ids with no stop are returned
// as missing, in order; the returned line never reorders the present stops.
func Build(name string, ids []string, idx *stopindex.Index) (Polyline, []string) {
	p := Polyline{Name: name, Coords: make([]geo.Coordinate, 0, len(ids))}
	var missing []string
	for _, id := range ids {
		stop, ok := idx.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		p.Coords = append(p.Coords, stop.Coordinate)
	}
	return p, missing
}

// BuildFromMembership builds the line of route from every stop listing it as
// a member, in index order.
func BuildFromMembership(route string, idx *stopindex.Index) Polyline {
	p := Polyline{Name: route}
	for _, stop := range idx.Stops() {
		if stop.HasRoute(route) {
			p.Coords = append(p.Coords, stop.Coordinate)
		}
	}
	return p
}

// BuildAllFromMembership builds a forward and a reverse line for every route
// named in idx, routes in order of first appearance. Routes without stops are
// skipped.
func BuildAllFromMembership(idx *stopindex.Index, naming Naming) []Polyline {
	var lines []Polyline
	for _, route := range idx.RouteNames() {
		forward := BuildFromMembership(route, idx)
		if forward.Len() == 0 {
			continue
		}
		lines = append(lines,
			Polyline{Name: route + naming.Forward, Coords: forward.Coords},
			forward.Reversed(route+naming.Reverse),
		)
	}
	return lines
}
