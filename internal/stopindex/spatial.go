package stopindex

import (
	"cmp"
	"slices"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// DefaultClusterTolerance is the distance under which two stops are taken to
// be the same physical location.
const DefaultClusterTolerance = 25.0

// NearbyStop is a stop returned by a spatial query with its distance in meters.
type NearbyStop struct {
	Stop
	Distance float64 `json:"distance"`
}

// Nearby returns the stops within radius meters of c, closest first. Ties keep
// index order.
func (idx *Index) Nearby(c geo.Coordinate, radius float64) []NearbyStop {
	if idx == nil || radius < 0 {
		return nil
	}

	min, max := geo.SearchBox(c, radius)
	var out []NearbyStop
	idx.tree.Search(min, max, func(_, _ [2]float64, id string) bool {
		s, _ := idx.Get(id)
		if d := geo.Haversine(c, s.Coordinate); d <= radius {
			out = append(out, NearbyStop{Stop: s, Distance: d})
		}
		return true
	})

	pos := idx.pos
	slices.SortStableFunc(out, func(a, b NearbyStop) int {
		if n := cmp.Compare(a.Distance, b.Distance); n != 0 {
			return n
		}
		return cmp.Compare(pos[a.ID], pos[b.ID])
	})
	return out
}

// Clusters groups stops that lie closer than tol meters to each other,
// transitively. Only groups of two or more stops are returned; ids within a
// group and the groups themselves follow index order. The index is not
// modified.
func (idx *Index) Clusters(tol float64) [][]string {
	if idx == nil || tol <= 0 {
		return nil
	}

	pos := idx.pos
	parent := make([]int, len(idx.order))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	for i, id := range idx.order {
		c := idx.stops[id].Coordinate
		min, max := geo.SearchBox(c, tol)
		idx.tree.Search(min, max, func(_, _ [2]float64, other string) bool {
			j := pos[other]
			if j > i && geo.Haversine(c, idx.stops[other].Coordinate) < tol {
				union(i, j)
			}
			return true
		})
	}

	groups := make(map[int][]string)
	var roots []int
	for i, id := range idx.order {
		r := find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], id)
	}

	var out [][]string
	for _, r := range roots {
		if len(groups[r]) > 1 {
			out = append(out, groups[r])
		}
	}
	return out
}
