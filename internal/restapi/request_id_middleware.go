package restapi

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type (
	requestIDKey struct{}
	runIDKey     struct{}
)

const maxRequestIDLength = 128

var validRequestIDRegex = regexp.MustCompile(`^[a-zA-Z0-9-._:]+$`)

// NewRequestIDMiddleware tags every request with an id, reusing a well formed
// X-Request-ID from the client. When runID reports a build, its id is stored
// next to the request id and echoed in X-Run-ID so a response can be traced
// to the geometry it was served from.
func NewRequestIDMiddleware(runID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if !validRequestID(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)

			if runID != nil {
				if id := runID(); id != "" {
					w.Header().Set("X-Run-ID", id)
					ctx = context.WithValue(ctx, runIDKey{}, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDLength && validRequestIDRegex.MatchString(id)
}

// GetRequestID returns the id stored by the request id middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GetRunID returns the run the request was served from, or "" before the
// first build.
func GetRunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
