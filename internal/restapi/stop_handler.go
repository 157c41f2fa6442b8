package restapi

import (
	"net/http"

	"github.com/erzurum-ulasim/routegeom/internal/models"
)

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	id := pathName(r, "id")
	if id == "" {
		api.validationErrorResponse(w, r, fieldErrors{"id": {"stop id is required"}})
		return
	}
	if !api.IsReady() {
		api.sendUnavailable(w, r)
		return
	}

	stop, ok := api.Index.Get(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewStop(stop), api.Clock))
}
