package models

import (
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

// LineSummary is a line without its coordinates.
type LineSummary struct {
	Name         string  `json:"name"`
	Points       int     `json:"points"`
	LengthMeters float64 `json:"lengthMeters"`
}

// Line is a line with its coordinates, both as [lat, lng] pairs and as a
// Google encoded polyline.
type Line struct {
	LineSummary
	Coordinates []geo.Coordinate `json:"coordinates"`
	Encoded     string           `json:"encoded"`
	Region      *geo.Region      `json:"region,omitempty"`
}

func NewLineSummary(p routes.Polyline) LineSummary {
	return LineSummary{Name: p.Name, Points: p.Len(), LengthMeters: p.Length()}
}

func NewLine(p routes.Polyline) Line {
	coords := p.Coords
	if coords == nil {
		coords = []geo.Coordinate{}
	}
	return Line{
		LineSummary: NewLineSummary(p),
		Coordinates: coords,
		Encoded:     p.Encode(),
		Region:      geo.ComputeRegion(p.Coords),
	}
}

// SplitEntry is a line cut at its turnaround.
type SplitEntry struct {
	Line      string               `json:"line"`
	Detection turnaround.Detection `json:"detection"`
	Outbound  Line                 `json:"outbound"`
	Inbound   Line                 `json:"inbound"`
}

func NewSplitEntry(line string, s turnaround.Split, naming turnaround.Naming, base string) SplitEntry {
	out, in := naming.Names(base)
	return SplitEntry{
		Line:      line,
		Detection: s.Detection,
		Outbound:  NewLine(routes.Polyline{Name: out, Coords: s.Outbound.Coords}),
		Inbound:   NewLine(routes.Polyline{Name: in, Coords: s.Inbound.Coords}),
	}
}

// Stop is a stop as served by the API.
type Stop struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RouteIDs []string `json:"routeIds"`
	// Distance is set by location searches, in meters.
	Distance *float64 `json:"distance,omitempty"`
}

func NewStop(s stopindex.Stop) Stop {
	routeIDs := s.Routes
	if routeIDs == nil {
		routeIDs = []string{}
	}
	return Stop{
		ID:       s.ID,
		Name:     s.Name,
		Lat:      s.Coordinate.Lat,
		Lon:      s.Coordinate.Lng,
		RouteIDs: routeIDs,
	}
}

func NewNearbyStop(n stopindex.NearbyStop) Stop {
	s := NewStop(n.Stop)
	d := n.Distance
	s.Distance = &d
	return s
}
