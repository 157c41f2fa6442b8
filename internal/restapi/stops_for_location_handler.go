package restapi

import (
	"net/http"
	"strconv"

	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/models"
)

const (
	defaultSearchRadius = 500.0
	maxSearchRadius     = 5000.0
	defaultMaxCount     = 100
	maxMaxCount         = 1000
)

type locationQuery struct {
	center   geo.Coordinate
	radius   float64
	maxCount int
}

func parseLocationQuery(r *http.Request) (locationQuery, fieldErrors) {
	q := r.URL.Query()
	errs := fieldErrors{}
	lq := locationQuery{radius: defaultSearchRadius, maxCount: defaultMaxCount}

	float := func(key string, required bool, min, max float64, dst *float64) {
		v := q.Get(key)
		if v == "" {
			if required {
				errs[key] = append(errs[key], "is required")
			}
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs[key] = append(errs[key], "must be a number")
			return
		}
		if f < min || f > max {
			errs[key] = append(errs[key], "must be between "+strconv.FormatFloat(min, 'f', -1, 64)+" and "+strconv.FormatFloat(max, 'f', -1, 64))
			return
		}
		*dst = f
	}
	float("lat", true, -90, 90, &lq.center.Lat)
	float("lon", true, -180, 180, &lq.center.Lng)
	float("radius", false, 0, maxSearchRadius, &lq.radius)

	if v := q.Get("maxCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxMaxCount {
			errs["maxCount"] = append(errs["maxCount"], "must be between 1 and "+strconv.Itoa(maxMaxCount))
		} else {
			lq.maxCount = n
		}
	}

	if len(errs) > 0 {
		return lq, errs
	}
	return lq, nil
}

// stopsForLocationHandler lists the stops within radius meters of lat/lon,
// closest first.
func (api *RestAPI) stopsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	lq, errs := parseLocationQuery(r)
	if errs != nil {
		api.validationErrorResponse(w, r, errs)
		return
	}
	if !api.IsReady() {
		api.sendUnavailable(w, r)
		return
	}

	nearby := api.Index.Nearby(lq.center, lq.radius)
	limitExceeded := len(nearby) > lq.maxCount
	if limitExceeded {
		nearby = nearby[:lq.maxCount]
	}

	list := make([]models.Stop, 0, len(nearby))
	for _, n := range nearby {
		list = append(list, models.NewNearbyStop(n))
	}
	api.sendResponse(w, r, models.NewListResponse(list, limitExceeded, api.Clock))
}
