package app

import (
	"log/slog"

	"github.com/erzurum-ulasim/routegeom/internal/appconf"
	"github.com/erzurum-ulasim/routegeom/internal/clock"
	"github.com/erzurum-ulasim/routegeom/internal/metrics"
	"github.com/erzurum-ulasim/routegeom/internal/pipeline"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

// Application holds the dependencies shared by the HTTP handlers, helpers
// and middleware. The index and result are computed once at start-up and
// only read afterwards.
type Application struct {
	Config   appconf.Config
	Run      *appconf.FileConfig
	Logger   *slog.Logger
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Pipeline *pipeline.Pipeline
	Index    *stopindex.Index
	Result   *pipeline.Result
}

// Lines returns the computed lines, or nil before the first run.
func (app *Application) Lines() []routes.Polyline {
	if app.Result == nil {
		return nil
	}
	return app.Result.Collection.Lines
}

// Line returns the computed line called name.
func (app *Application) Line(name string) (routes.Polyline, bool) {
	for _, l := range app.Lines() {
		if l.Name == name {
			return l, true
		}
	}
	return routes.Polyline{}, false
}

// IsReady reports whether the index and result are available.
func (app *Application) IsReady() bool {
	return app.Index != nil && app.Result != nil
}
