package usgs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
)

const fixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type":"Feature","properties":{"place":"80 km SSW of Tonga","mag":5.1,"time":1710975000000,"url":"https://earthquake.usgs.gov/eq/1"}},
    {"type":"Feature","properties":{"place":"Off the coast of Chile","mag":4.3,"time":1710900000000,"url":"https://earthquake.usgs.gov/eq/2"}},
    {"type":"Feature","properties":{"place":"Honshu, Japan","mag":6.0,"time":1710990000000,"url":"https://earthquake.usgs.gov/eq/3"}}
  ]
}`

func testClient(baseURL string) *Client {
	rc := remote.NewClient(domain.SourceSeismic, "USGS", remote.Options{Timeout: 5 * time.Second},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewClient(baseURL, rc)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch_BuildsDayWindowQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "geojson", q.Get("format"))
		assert.Equal(t, "2024-03-20T00:00:00.000Z", q.Get("starttime"))
		assert.Equal(t, "2024-03-20T23:59:59.999Z", q.Get("endtime"))
		assert.Equal(t, "4", q.Get("minmagnitude"))
		_, _ = w.Write([]byte(fixture))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
}

func TestClient_Fetch_PreservesSourceOrder(t *testing.T) {
	srv := serve(t, http.StatusOK, fixture)

	events, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, domain.SeismicEvent{
		Place:             "80 km SSW of Tonga",
		Magnitude:         5.1,
		OccurredAtEpochMs: 1710975000000,
		DetailURL:         "https://earthquake.usgs.gov/eq/1",
	}, events[0])
	assert.Equal(t, "Off the coast of Chile", events[1].Place)
	assert.Equal(t, "Honshu, Japan", events[2].Place)
}

func TestClient_Fetch_EmptyDay(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"type":"FeatureCollection","features":[]}`)

	events, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_Fetch_InvalidDate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), "2024/03/20")
	require.ErrorIs(t, err, domain.ErrInvalidDate)
	assert.Zero(t, hits.Load())
}

func TestClient_Fetch_ServerError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, "")

	_, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Fetch_ShapeAnomalies(t *testing.T) {
	bodies := map[string]string{
		"missing features":   `{"type":"FeatureCollection"}`,
		"features not array": `{"features":{}}`,
		"missing properties": `{"features":[{"type":"Feature"}]}`,
		"null magnitude":     `{"features":[{"properties":{"place":"x","mag":null,"time":1}}]}`,
		"string magnitude":   `{"features":[{"properties":{"place":"x","mag":"4.5","time":1}}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, body)

			events, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestClient_Fetch_Idempotent(t *testing.T) {
	srv := serve(t, http.StatusOK, fixture)
	c := testClient(srv.URL)

	first, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated fetch mismatch (-first +second):\n%s", diff)
	}
}
