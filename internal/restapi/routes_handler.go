package restapi

import (
	"net/http"

	"github.com/erzurum-ulasim/routegeom/internal/models"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	if !api.IsReady() {
		api.sendUnavailable(w, r)
		return
	}

	lines := api.Lines()
	list := make([]models.LineSummary, 0, len(lines))
	for _, l := range lines {
		list = append(list, models.NewLineSummary(l))
	}
	api.sendResponse(w, r, models.NewListResponse(list, false, api.Clock))
}
