package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erzurum-ulasim/routegeom/internal/app"
	"github.com/erzurum-ulasim/routegeom/internal/clock"
)

func TestHealthHandlerWithNilApplication(t *testing.T) {
	api := &RestAPI{Application: nil}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	api.healthHandler(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "application not initialized", resp.Detail)
}

func TestHealthHandlerBeforeFirstRun(t *testing.T) {
	api := &RestAPI{Application: &app.Application{Clock: clock.NewMockClock(testTime)}}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	api.healthHandler(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "starting", resp.Status)
}

func TestHealthHandlerReturnsOK(t *testing.T) {
	api := createTestApi(t)

	resp, body := serveAndRetrieveEndpoint(t, api, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, api.Result.RunID, health.RunID)
	assert.Equal(t, api.Result.RunID, resp.Header.Get("X-Run-ID"))
	assert.Equal(t, 42, health.Stops)
	assert.Equal(t, 4, health.Lines)
}

func TestHealthHandlerNeedsNoAPIKey(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveAndRetrieveEndpoint(t, api, "/healthz?key=wrong", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
