// Package restapi serves the computed route geometry over HTTP.
package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erzurum-ulasim/routegeom/internal/app"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
)

// Cache lifetimes of the API tiers. Geometry only changes with a new run.
const (
	geometryCacheSeconds = 300
	reportCacheSeconds   = 60
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.ExemptApiKeys, app.Clock, app.Metrics),
	}
}

// SetRoutes registers the API endpoints on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/config.json", api.protected(0, api.configHandler))
	mux.Handle("GET /api/routes.json", api.protected(geometryCacheSeconds, api.routesHandler))
	mux.Handle("GET /api/route/{name}", api.protected(geometryCacheSeconds, api.routeHandler))
	mux.Handle("GET /api/route/{name}/split.json", api.protected(geometryCacheSeconds, api.splitHandler))
	mux.Handle("GET /api/stop/{id}", api.protected(geometryCacheSeconds, api.stopHandler))
	mux.Handle("GET /api/stops-for-location.json", api.protected(geometryCacheSeconds, api.stopsForLocationHandler))
	mux.Handle("GET /api/report.json", api.protected(reportCacheSeconds, api.reportHandler))
}

// Handler returns mux wrapped in the request id, logging and metrics
// middleware.
func (api *RestAPI) Handler(mux *http.ServeMux) http.Handler {
	var h http.Handler = mux
	h = MetricsHandler(api.Metrics)(h)
	h = NewRequestLoggingMiddleware(api.Logger, api.Config.Verbose)(h)
	return NewRequestIDMiddleware(api.etag)(h)
}

// protected applies rate limiting, API key checks and cache headers.
func (api *RestAPI) protected(cacheSeconds int, h http.HandlerFunc) http.Handler {
	cached := CacheControlMiddleware(cacheSeconds, api.etag, h)
	keyed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		cached.ServeHTTP(w, r)
	})
	return api.rateLimiter.Handler()(keyed)
}

// etag identifies the run whose result is being served.
func (api *RestAPI) etag() string {
	if api.Application == nil || api.Result == nil {
		return ""
	}
	return api.Result.RunID
}

func (api *RestAPI) requestLogger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}

// Shutdown stops the rate limiter's background cleanup.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
