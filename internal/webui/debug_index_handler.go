package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/erzurum-ulasim/routegeom/internal/appconf"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// debugTypes are the values accepted by the dataType parameter.
var debugTypes = []string{"stops", "routes", "lines", "splits", "report", "clusters", "config"}

type debugData struct {
	Title string
	Pre   string
	Types []string
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   dumper.Sdump(data),
		Types: debugTypes,
	})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Application == nil || webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	if !webUI.IsReady() && dataType != "config" {
		writeDebugData(w, "Not ready", map[string]string{"status": "route geometry is being built"})
		return
	}

	var data any
	var title string
	switch dataType {
	case "stops":
		data = webUI.Index.Stops()
		title = "Stop Index - Stops"
	case "routes":
		data = webUI.Index.RouteNames()
		title = "Stop Index - Route Names"
	case "lines":
		data = webUI.Result.Collection
		title = "Pipeline - Lines"
	case "splits":
		data = map[string]any{"splits": webUI.Result.Splits, "unsplit": webUI.Result.Unsplit}
		title = "Pipeline - Turnarounds"
	case "report":
		data = webUI.Result.Summary()
		title = "Pipeline - Report"
	case "clusters":
		data = webUI.Result.Clusters
		title = "Stop Index - Clusters"
	case "config":
		data = webUI.Run
		title = "Run Configuration"
	default:
		data = map[string]string{
			"error": "Please use one of the following: " + strings.Join(debugTypes, ", ") + ".",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
