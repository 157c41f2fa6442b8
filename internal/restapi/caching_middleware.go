package restapi

import (
	"fmt"
	"net/http"
	"strings"
)

const noCache = "no-cache, no-store, must-revalidate"

// CacheControlMiddleware sets Cache-Control on successful responses and, when
// etag returns a run id, answers matching If-None-Match requests with 304.
// Error responses are never cached.
func CacheControlMiddleware(durationSeconds int, etag func() string, next http.Handler) http.Handler {
	headerValue := noCache
	if durationSeconds > 0 {
		headerValue = fmt.Sprintf("public, max-age=%d", durationSeconds)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := ""
		if etag != nil && durationSeconds > 0 {
			if id := etag(); id != "" {
				tag = `"` + id + `"`
			}
		}
		if tag != "" && etagMatches(r.Header.Get("If-None-Match"), tag) {
			w.Header().Set("ETag", tag)
			w.Header().Set("Cache-Control", headerValue)
			w.WriteHeader(http.StatusNotModified)
			return
		}

		next.ServeHTTP(&cacheControlWriter{
			ResponseWriter: w,
			headerValue:    headerValue,
			etag:           tag,
		}, r)
	})
}

func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == tag || candidate == "*" {
			return true
		}
	}
	return false
}

type cacheControlWriter struct {
	http.ResponseWriter
	headerValue   string
	etag          string
	headerWritten bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.headerWritten = true
		h := w.ResponseWriter.Header()
		if code >= 200 && code < 300 {
			h.Set("Cache-Control", w.headerValue)
			if w.etag != "" {
				h.Set("ETag", w.etag)
			}
		} else {
			h.Set("Cache-Control", noCache)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
