package neows

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

const testAPIKey = "test-key"

const testAsteroidFixture = `{
  "element_count": 1,
  "near_earth_objects": {
    "2024-03-20": [
      {
        "name": "Test Asteroid",
        "nasa_jpl_url": "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=1",
        "estimated_diameter": {
          "meters": {"estimated_diameter_min": 100, "estimated_diameter_max": 200}
        },
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": [
          {
            "close_approach_date": "2024-03-20",
            "relative_velocity": {"kilometers_per_second": "13.8", "kilometers_per_hour": "50000"},
            "miss_distance": {"astronomical": "0.0066", "kilometers": "1000000"}
          }
        ]
      }
    ]
  }
}`

func testClient(baseURL string) *Client {
	rc := remote.NewClient(domain.SourceAsteroids, "NASA", remote.Options{Timeout: 5 * time.Second},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewClient(baseURL, testAPIKey, rc)
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

func TestClient_Fetch_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-03-20", q.Get("start_date"))
		assert.Equal(t, "2024-03-20", q.Get("end_date"))
		assert.Equal(t, testAPIKey, q.Get("api_key"))
		_, _ = w.Write([]byte(testAsteroidFixture))
	}))
	defer srv.Close()

	objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, domain.CloseApproachObject{
		Name:              "Test Asteroid",
		MinDiameterMeters: 100,
		MaxDiameterMeters: 200,
		MissDistanceKm:    1000000,
		VelocityKmPerHour: 50000,
		Hazardous:         false,
		ReferenceURL:      "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=1",
	}, objects[0])
}

func TestClient_Fetch_KeepsFractionalValues(t *testing.T) {
	body := `{"near_earth_objects":{"2024-03-20":[{"name":"(2024 FA)","estimated_diameter":{"meters":{"estimated_diameter_min":12.345,"estimated_diameter_max":27.6}},"is_potentially_hazardous_asteroid":true,"close_approach_data":[{"miss_distance":{"kilometers":"7481234.567"},"relative_velocity":{"kilometers_per_hour":"61234.89"}}]}]}}`
	srv := serve(t, http.StatusOK, body)

	objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.InDelta(t, 12.345, objects[0].MinDiameterMeters, 1e-9)
	assert.InDelta(t, 7481234.567, objects[0].MissDistanceKm, 1e-9)
	assert.InDelta(t, 61234.89, objects[0].VelocityKmPerHour, 1e-9)
	assert.True(t, objects[0].Hazardous)
}

func TestClient_Fetch_PreservesSourceOrder(t *testing.T) {
	body := `{"near_earth_objects":{"2024-03-20":[
	  {"name":"B","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[{"miss_distance":{"kilometers":"1"},"relative_velocity":{"kilometers_per_hour":"1"}}]},
	  {"name":"A","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[{"miss_distance":{"kilometers":"1"},"relative_velocity":{"kilometers_per_hour":"1"}}]}
	]}}`
	srv := serve(t, http.StatusOK, body)

	objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "B", objects[0].Name)
	assert.Equal(t, "A", objects[1].Name)
}

func TestClient_Fetch_SingleBucketKeyedDifferently(t *testing.T) {
	body := `{"near_earth_objects":{"2024-03-21":[{"name":"X","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[{"miss_distance":{"kilometers":"1"},"relative_velocity":{"kilometers_per_hour":"1"}}]}]}}`
	srv := serve(t, http.StatusOK, body)

	objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "X", objects[0].Name)
}

func TestClient_Fetch_EmptyBucket(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"near_earth_objects":{"2024-03-20":[]}}`)

	objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	assert.NotNil(t, objects)
	assert.Empty(t, objects)
}

func TestClient_Fetch_InvalidDate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	for _, date := range []string{"2024/03/20", "2024-13-45"} {
		_, err := testClient(srv.URL).Fetch(context.Background(), date)
		require.ErrorIs(t, err, domain.ErrInvalidDate)
	}
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
		"missing near_earth_objects": `{"element_count":0}`,
		"empty map":                  `{"near_earth_objects":{}}`,
		"two unrelated buckets":      `{"near_earth_objects":{"2024-03-21":[],"2024-03-22":[]}}`,
		"unparseable distance":       `{"near_earth_objects":{"2024-03-20":[{"name":"X","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[{"miss_distance":{"kilometers":"far"},"relative_velocity":{"kilometers_per_hour":"1"}}]}]}}`,
		"unparseable velocity":       `{"near_earth_objects":{"2024-03-20":[{"name":"X","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[{"miss_distance":{"kilometers":"1"},"relative_velocity":{"kilometers_per_hour":""}}]}]}}`,
		"no close approach":          `{"near_earth_objects":{"2024-03-20":[{"name":"X","estimated_diameter":{"meters":{"estimated_diameter_min":1,"estimated_diameter_max":2}},"close_approach_data":[]}]}}`,
		"missing diameter":           `{"near_earth_objects":{"2024-03-20":[{"name":"X","close_approach_data":[{"miss_distance":{"kilometers":"1"},"relative_velocity":{"kilometers_per_hour":"1"}}]}]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, body)

			objects, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
			require.NoError(t, err)
			assert.Empty(t, objects)
		})
	}
}

func TestClient_Fetch_Idempotent(t *testing.T) {
	srv := serve(t, http.StatusOK, testAsteroidFixture)
	c := testClient(srv.URL)

	first, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated fetch mismatch (-first +second):\n%s", diff)
	}
}
