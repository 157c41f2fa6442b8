// Package webui serves the HTML debug pages and the exported files.
package webui

import (
	"net/http"

	"github.com/erzurum-ulasim/routegeom/internal/app"
)

type WebUI struct {
	*app.Application
	// ExportDir is the directory whose exports are served under /exports/.
	// Empty disables the route.
	ExportDir string
}

func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
	if webUI.ExportDir != "" {
		mux.HandleFunc("GET /exports/{file}", webUI.exportsHandler)
	}
}
