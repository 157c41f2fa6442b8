package restapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erzurum-ulasim/routegeom/internal/logging"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("should generate request ID if missing", func(t *testing.T) {
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestID(r.Context()), "Context should contain request ID")
			assert.Empty(t, GetRunID(r.Context()))
		})

		handlerToTest := NewRequestIDMiddleware(nil)(nextHandler)

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		rec := httptest.NewRecorder()

		handlerToTest.ServeHTTP(rec, req)

		respID := rec.Header().Get("X-Request-ID")
		assert.NotEmpty(t, respID, "Response header should contain X-Request-ID")
		assert.Regexp(t, `^[0-9a-f-]{36}$`, respID)
	})

	t.Run("should preserve existing valid request ID", func(t *testing.T) {
		existingID := "my-custom-trace-id-123"

		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, existingID, GetRequestID(r.Context()))
		})

		handlerToTest := NewRequestIDMiddleware(nil)(nextHandler)

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		req.Header.Set("X-Request-ID", existingID)
		rec := httptest.NewRecorder()

		handlerToTest.ServeHTTP(rec, req)

		assert.Equal(t, existingID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("should preserve exactly 128 character request ID (boundary)", func(t *testing.T) {
		existingID := strings.Repeat("a", 128)

		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, existingID, GetRequestID(r.Context()))
		})

		handlerToTest := NewRequestIDMiddleware(nil)(nextHandler)

		req := httptest.NewRequest("GET", "http://example.com/foo", nil)
		req.Header.Set("X-Request-ID", existingID)
		rec := httptest.NewRecorder()

		handlerToTest.ServeHTTP(rec, req)

		assert.Equal(t, existingID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("should replace invalid request ID", func(t *testing.T) {
		testCases := []struct {
			name      string
			invalidID string
		}{
			{
				name:      "ID too long (>128 chars)",
				invalidID: strings.Repeat("a", 129),
			},
			{
				name:      "ID contains invalid characters",
				invalidID: "bad-id-<script>",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					reqID := GetRequestID(r.Context())
					assert.NotEqual(t, tc.invalidID, reqID)
					assert.Regexp(t, `^[0-9a-f-]{36}$`, reqID)
				})

				handlerToTest := NewRequestIDMiddleware(nil)(nextHandler)

				req := httptest.NewRequest("GET", "http://example.com/foo", nil)
				req.Header.Set("X-Request-ID", tc.invalidID)
				rec := httptest.NewRecorder()

				handlerToTest.ServeHTTP(rec, req)
			})
		}
	})
}

func TestRequestIDMiddlewareRunID(t *testing.T) {
	t.Run("tags request and response with the served run", func(t *testing.T) {
		var logBuf bytes.Buffer
		testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "run-42", GetRunID(r.Context()))
			w.WriteHeader(http.StatusOK)
		})
		handlerToTest := NewRequestIDMiddleware(func() string { return "run-42" })(
			NewRequestLoggingMiddleware(testLogger, true)(nextHandler))

		rec := httptest.NewRecorder()
		handlerToTest.ServeHTTP(rec, httptest.NewRequest("GET", "/api/routes.json", nil))

		assert.Equal(t, "run-42", rec.Header().Get("X-Run-ID"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		assert.Contains(t, logBuf.String(), `"run_id":"run-42"`)
	})

	t.Run("omits the header before the first build", func(t *testing.T) {
		handlerToTest := NewRequestIDMiddleware(func() string { return "" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		handlerToTest.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

		assert.Empty(t, rec.Header().Get("X-Run-ID"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDLoggingIntegration(t *testing.T) {
	var logBuf bytes.Buffer

	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	loggingMiddleware := NewRequestLoggingMiddleware(testLogger, true)(finalHandler)
	handlerToTest := NewRequestIDMiddleware(nil)(loggingMiddleware)

	expectedReqID := "integration-test-id-999"
	req := httptest.NewRequest("GET", "http://example.com/test", nil)
	req.Header.Set("X-Request-ID", expectedReqID)
	rec := httptest.NewRecorder()

	handlerToTest.ServeHTTP(rec, req)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, expectedReqID, "Log output should contain the request ID")
	assert.Contains(t, logOutput, "request_id", "Log output should contain the request_id key")
	assert.Contains(t, logOutput, `"component":"http_server"`)
}

func TestRequestLoggerInContext(t *testing.T) {
	var logBuf bytes.Buffer
	testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside_handler")
	})
	handlerToTest := NewRequestIDMiddleware(nil)(NewRequestLoggingMiddleware(testLogger, false)(finalHandler))

	req := httptest.NewRequest("GET", "http://example.com/test", nil)
	req.Header.Set("X-Request-ID", "ctx-logger-id")
	handlerToTest.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, logBuf.String(), `"msg":"inside_handler"`)
	assert.Contains(t, logBuf.String(), "ctx-logger-id")
}

func TestRequestLoggingQuietUnlessVerbose(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		status  int
		logged  bool
	}{
		{"success is quiet", false, http.StatusOK, false},
		{"client error is logged", false, http.StatusNotFound, true},
		{"verbose logs success", true, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf bytes.Buffer
			testLogger := slog.New(slog.NewJSONHandler(&logBuf, nil))
			h := NewRequestLoggingMiddleware(testLogger, tt.verbose)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/routes.json", nil))

			if tt.logged {
				assert.Contains(t, logBuf.String(), `"msg":"http_request"`)
			} else {
				assert.Empty(t, logBuf.String())
			}
		})
	}
}
