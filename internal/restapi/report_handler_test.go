package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erzurum-ulasim/routegeom/internal/app"
	"github.com/erzurum-ulasim/routegeom/internal/appconf"
	"github.com/erzurum-ulasim/routegeom/internal/clock"
)

func TestReportHandler(t *testing.T) {
	api := createTestApi(t)

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/report.json?key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, api.Result.RunID, entry["runId"])
	assert.Equal(t, 42.0, entry["stops"])
	assert.Equal(t, []any{"K9Dogru", "K9Ters", "G6Dogru", "G6Ters"}, entry["lines"])
	assert.Equal(t, []any{}, entry["missing"])
	assert.Equal(t, 0.0, entry["missingTotal"])
	assert.Equal(t, []any{}, entry["omitted"])
	assert.NotEmpty(t, entry["clusters"])
}

func TestHandlersBeforeFirstRun(t *testing.T) {
	c := clock.NewMockClock(testTime)
	api := NewRestAPI(&app.Application{
		Config: appconf.Config{ApiKeys: []string{"TEST"}, RateLimit: 100},
		Clock:  c,
	})
	t.Cleanup(api.Shutdown)

	for _, endpoint := range []string{
		"/api/routes.json?key=TEST",
		"/api/route/K9Dogru.json?key=TEST",
		"/api/route/K9Dogru/split.json?key=TEST",
		"/api/stop/G1.json?key=TEST",
		"/api/stops-for-location.json?key=TEST&lat=40&lon=41.3",
		"/api/report.json?key=TEST",
	} {
		resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, endpoint)
		assert.Equal(t, http.StatusServiceUnavailable, model.Code, endpoint)
	}

	resp, _ := serveAndRetrieveEndpoint(t, api, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
