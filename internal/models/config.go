package models

import (
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

type BuildProperties struct {
	GoVersion  string `json:"go.version"`
	Module     string `json:"build.module"`
	Version    string `json:"build.version"`
	Revision   string `json:"vcs.revision"`
	CommitTime string `json:"vcs.time"`
	Dirty      string `json:"vcs.modified"`
}

type ConfigModel struct {
	BuildProperties BuildProperties   `json:"buildProperties"`
	Id              string            `json:"id"`
	Name            string            `json:"name"`
	RunID           string            `json:"runId"`
	GeneratedAt     int64             `json:"generatedAt"`
	Bounds          geo.Bounds        `json:"bounds"`
	Region          *geo.Region       `json:"region,omitempty"`
	Turnaround      turnaround.Config `json:"turnaround"`
}
