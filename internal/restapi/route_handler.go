package restapi

import (
	"net/http"
	"strings"

	"github.com/erzurum-ulasim/routegeom/internal/models"
)

// pathName returns the path value key without a trailing ".json".
func pathName(r *http.Request, key string) string {
	return strings.TrimSuffix(strings.TrimSpace(r.PathValue(key)), ".json")
}

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	name := pathName(r, "name")
	if name == "" {
		api.validationErrorResponse(w, r, fieldErrors{"name": {"line name is required"}})
		return
	}
	if !api.IsReady() {
		api.sendUnavailable(w, r)
		return
	}

	line, ok := api.Line(name)
	if !ok {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewLine(line), api.Clock))
}
