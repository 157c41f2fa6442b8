package restapi

import (
	"net/http"

	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/models"
)

// fieldErrors maps a query or path parameter to its validation messages.
type fieldErrors map[string][]string

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.requestLogger(r), "request failed", err,
		"method", r.Method,
		"path", r.URL.Path)
	api.sendError(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, errs fieldErrors) {
	api.sendResponse(w, r, models.ResponseModel{
		Code:        http.StatusBadRequest,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Data:        map[string]any{"fieldErrors": errs},
		Text:        "invalid request parameters",
		Version:     2,
	})
}
