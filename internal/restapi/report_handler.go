package restapi

import (
	"net/http"

	"github.com/erzurum-ulasim/routegeom/internal/models"
)

// reportHandler serves the diagnostics of the last run.
func (api *RestAPI) reportHandler(w http.ResponseWriter, r *http.Request) {
	if !api.IsReady() {
		api.sendUnavailable(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(api.Result.Summary(), api.Clock))
}
