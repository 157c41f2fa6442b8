package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erzurum-ulasim/routegeom/internal/app"
	"github.com/erzurum-ulasim/routegeom/internal/appconf"
	"github.com/erzurum-ulasim/routegeom/internal/clock"
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/metrics"
	"github.com/erzurum-ulasim/routegeom/internal/models"
	"github.com/erzurum-ulasim/routegeom/internal/pipeline"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

var testTime = time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC)

// testIndex holds route K9, which runs north over O00..O19 and returns
// south over B00..B18 about 17 m further east, and the short route G6.
func testIndex(t *testing.T) *stopindex.Index {
	t.Helper()
	b := stopindex.NewBuilder(geo.DefaultBounds(), stopindex.KeepLast)
	for i := 0; i < 20; i++ {
		b.Add(stopindex.Stop{
			ID:         fmt.Sprintf("O%02d", i),
			Coordinate: geo.Coordinate{Lat: 39.90 + 0.002*float64(i), Lng: 41.270},
			Routes:     []string{"K9"},
		})
	}
	for j := 0; j < 19; j++ {
		b.Add(stopindex.Stop{
			ID:         fmt.Sprintf("B%02d", j),
			Coordinate: geo.Coordinate{Lat: 39.90 + 0.002*float64(19-j), Lng: 41.2702},
			Routes:     []string{"K9"},
		})
	}
	for i, lng := range []float64{41.30, 41.31, 41.32} {
		b.Add(stopindex.Stop{
			ID:         fmt.Sprintf("G%d", i+1),
			Name:       fmt.Sprintf("Durak %d", i+1),
			Coordinate: geo.Coordinate{Lat: 40.00, Lng: lng},
			Routes:     []string{"G6"},
		})
	}
	idx := b.Build()
	require.Equal(t, 42, idx.Len())
	return idx
}

func testApplication(t *testing.T, c clock.Clock) *app.Application {
	t.Helper()
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)
	m := metrics.New()

	p, err := pipeline.New(pipeline.DefaultOptions(), m, c, logger)
	require.NoError(t, err)

	idx := testIndex(t)
	res, err := p.Run(context.Background(), idx, stopindex.Report{}, pipeline.Plan{Membership: true})
	require.NoError(t, err)

	return &app.Application{
		Config: appconf.Config{
			Env:           appconf.Test,
			ApiKeys:       []string{"TEST"},
			ExemptApiKeys: []string{"EXEMPT"},
			RateLimit:     100,
		},
		Run:      appconf.DefaultFileConfig(),
		Logger:   logger,
		Clock:    c,
		Metrics:  m,
		Pipeline: p,
		Index:    idx,
		Result:   res,
	}
}

func createTestApiWithClock(t *testing.T, c clock.Clock) *RestAPI {
	t.Helper()
	api := NewRestAPI(testApplication(t, c))
	t.Cleanup(api.Shutdown)
	return api
}

func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithClock(t, clock.NewMockClock(testTime))
}

// serveAndRetrieveEndpoint serves api behind its full middleware chain and
// returns the response with its body.
func serveAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(api.Handler(mux))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+endpoint, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	resp, body := serveAndRetrieveEndpoint(t, api, endpoint, nil)
	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(body, &model), string(body))
	return resp, model
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]any {
	t.Helper()
	data, ok := model.Data.(map[string]any)
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]any)
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) ([]any, bool) {
	t.Helper()
	data, ok := model.Data.(map[string]any)
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]any)
	require.True(t, ok, "data.list should be an array")
	limitExceeded, _ := data["limitExceeded"].(bool)
	return list, limitExceeded
}
