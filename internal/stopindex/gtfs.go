package stopindex

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/OneBusAway/go-gtfs"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
)

// Sequence is the ordered list of stop ids served by one route in one
// direction, taken from the longest scheduled trip.
type Sequence struct {
	Route     string   `json:"route"`
	Direction int      `json:"direction"`
	TripID    string   `json:"tripId"`
	StopIDs   []string `json:"stopIds"`
}

// GTFSParser reads stops, route memberships and stop sequences out of a GTFS
// static feed.
type GTFSParser struct {
	Bounds geo.Bounds
	Policy MergePolicy
}

// NewGTFSParser returns a parser using the default bounds and KeepLast.
func NewGTFSParser() *GTFSParser {
	return &GTFSParser{Bounds: geo.DefaultBounds(), Policy: KeepLast}
}

// ParseGTFS is a shorthand for NewGTFSParser().Parse(data).
func ParseGTFS(data []byte) (*Index, []Sequence, Report, error) {
	return NewGTFSParser().Parse(data)
}

// Parse builds an index from the zipped feed in data.
func (p *GTFSParser) Parse(data []byte) (*Index, []Sequence, Report, error) {
	b := NewBuilder(p.Bounds, p.Policy)
	seqs, report, err := p.ParseInto(b, data)
	if err != nil {
		return nil, nil, Report{}, err
	}
	report.Duplicates = b.Duplicates()
	return b.Build(), seqs, report, nil
}

// ParseInto adds the feed's stops to b. Each stop is tagged with every route
// that serves it; routes are named by short name, falling back to route id.
func (p *GTFSParser) ParseInto(b *Builder, data []byte) ([]Sequence, Report, error) {
	var report Report

	staticData, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, report, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	memberships := make(map[string][]string)
	type key struct {
		route     string
		direction int
	}
	longest := make(map[key]*gtfs.ScheduledTrip)
	var keys []key

	for i := range staticData.Trips {
		trip := &staticData.Trips[i]
		if trip.Route == nil {
			continue
		}
		name := routeName(trip.Route)

		for _, st := range trip.StopTimes {
			if st.Stop == nil {
				continue
			}
			if !slices.Contains(memberships[st.Stop.Id], name) {
				memberships[st.Stop.Id] = append(memberships[st.Stop.Id], name)
			}
		}

		k := key{route: name, direction: int(trip.DirectionId)}
		current, ok := longest[k]
		if !ok {
			keys = append(keys, k)
		}
		if !ok || len(trip.StopTimes) > len(current.StopTimes) {
			longest[k] = trip
		}
	}

	for i, stop := range staticData.Stops {
		pos := i + 1
		if stop.Latitude == nil || stop.Longitude == nil {
			report.omit(pos, stop.Id, ReasonNumericCoercion,
				&NumericCoercionError{Field: "stop_lat/stop_lon", Value: "", Err: errNotNumeric})
			continue
		}
		s := Stop{
			ID:         stop.Id,
			Coordinate: geo.Coordinate{Lat: *stop.Latitude, Lng: *stop.Longitude},
			Name:       strings.TrimSpace(stop.Name),
			Routes:     memberships[stop.Id],
		}
		if !b.Add(s) {
			report.omit(pos, stop.Id, ReasonOutOfBounds,
				fmt.Errorf("%s outside %+v", s.Coordinate, b.Bounds()))
		}
	}

	seqs := make([]Sequence, 0, len(keys))
	for _, k := range keys {
		trip := longest[k]
		stopTimes := slices.Clone(trip.StopTimes)
		slices.SortStableFunc(stopTimes, func(a, b gtfs.ScheduledStopTime) int {
			return cmp.Compare(a.StopSequence, b.StopSequence)
		})
		ids := make([]string, 0, len(stopTimes))
		for _, st := range stopTimes {
			if st.Stop != nil {
				ids = append(ids, st.Stop.Id)
			}
		}
		seqs = append(seqs, Sequence{
			Route:     k.route,
			Direction: k.direction,
			TripID:    trip.ID,
			StopIDs:   ids,
		})
	}

	return seqs, report, nil
}

func routeName(r *gtfs.Route) string {
	if name := strings.TrimSpace(r.ShortName); name != "" {
		return name
	}
	return r.Id
}
