package restapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/erzurum-ulasim/routegeom/internal/models"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

// detectorFromQuery returns the pipeline's detector, or a new one when the
// request overrides lookahead, thresholdFactor or confirmRun.
func (api *RestAPI) detectorFromQuery(r *http.Request) (*turnaround.Detector, fieldErrors) {
	base := api.Pipeline.Detector()
	cfg := base.Config()
	errs := fieldErrors{}
	overridden := false

	q := r.URL.Query()
	for key, dst := range map[string]*int{"lookahead": &cfg.Lookahead, "confirmRun": &cfg.ConfirmRun} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				errs[key] = append(errs[key], "must be a positive integer")
				continue
			}
			*dst = n
			overridden = true
		}
	}
	if v := q.Get("thresholdFactor"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f > 0) {
			errs["thresholdFactor"] = append(errs["thresholdFactor"], "must be a positive number")
		} else {
			cfg.ThresholdFactor = f
			overridden = true
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if !overridden {
		return base, nil
	}
	d, err := turnaround.NewDetector(cfg)
	if err != nil {
		return nil, fieldErrors{"turnaround": {err.Error()}}
	}
	return d, nil
}

// splitHandler cuts a built line at its turnaround.
func (api *RestAPI) splitHandler(w http.ResponseWriter, r *http.Request) {
	name := pathName(r, "name")
	if name == "" {
		api.validationErrorResponse(w, r, fieldErrors{"name": {"line name is required"}})
		return
	}
	if !api.IsReady() || api.Pipeline == nil {
		api.sendUnavailable(w, r)
		return
	}

	detector, errs := api.detectorFromQuery(r)
	if errs != nil {
		api.validationErrorResponse(w, r, errs)
		return
	}

	line, ok := api.Line(name)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	split, err := detector.Split(line.Coords)
	switch {
	case errors.Is(err, turnaround.ErrNoSplitFound), errors.Is(err, turnaround.ErrInsufficientData):
		api.sendError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	opts := api.Pipeline.Options()
	base := routes.TrimDirection(line.Name, opts.DirectionSuffixes)
	entry := models.NewSplitEntry(line.Name, split, opts.SplitNaming, base)
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.Clock))
}
