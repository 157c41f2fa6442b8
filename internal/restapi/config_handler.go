package restapi

import (
	"net/http"
	"runtime/debug"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/models"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

func readBuildProperties() models.BuildProperties {
	props := models.BuildProperties{Version: "unknown", Revision: "unknown"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return props
	}
	props.GoVersion = info.GoVersion
	props.Module = info.Main.Path
	if info.Main.Version != "" {
		props.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			props.Revision = s.Value
		case "vcs.time":
			props.CommitTime = s.Value
		case "vcs.modified":
			props.Dirty = s.Value
		}
	}
	return props
}

func (api *RestAPI) configHandler(w http.ResponseWriter, r *http.Request) {
	entry := models.ConfigModel{
		BuildProperties: readBuildProperties(),
		Id:              "routegeom",
		Name:            "Route Geometry",
		Bounds:          geo.DefaultBounds(),
		Turnaround:      turnaround.DefaultConfig(),
	}
	if api.Run != nil {
		entry.Bounds = api.Run.Index.Bounds
	}
	if api.Pipeline != nil {
		entry.Turnaround = api.Pipeline.Detector().Config()
	}
	if api.Result != nil {
		entry.RunID = api.Result.RunID
		entry.GeneratedAt = api.Result.Collection.GeneratedAt.UnixMilli()
		paths := make([][]geo.Coordinate, 0, len(api.Lines()))
		for _, l := range api.Lines() {
			paths = append(paths, l.Coords)
		}
		entry.Region = geo.ComputeRegion(paths...)
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}
