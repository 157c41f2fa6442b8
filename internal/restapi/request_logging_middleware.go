package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/logging"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// NewRequestLoggingMiddleware logs every request and stores a request scoped
// logger in the context. Successful requests are only logged at debug level
// unless verbose is set.
func NewRequestLoggingMiddleware(logger *slog.Logger, verbose bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "http_server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With(slog.String("request_id", GetRequestID(r.Context())))
			if runID := GetRunID(r.Context()); runID != "" {
				reqLogger = reqLogger.With(slog.String("run_id", runID))
			}
			r = r.WithContext(logging.WithLogger(r.Context(), reqLogger))

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			duration := float64(time.Since(start).Nanoseconds()) / 1e6
			if !verbose && wrapped.statusCode < 400 {
				reqLogger.Debug("http_request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", wrapped.statusCode),
					slog.Float64("duration_ms", duration))
				return
			}
			logging.LogHTTPRequest(reqLogger,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				duration,
				slog.String("user_agent", r.Header.Get("User-Agent")))
		})
	}
}
