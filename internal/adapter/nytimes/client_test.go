package nytimes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
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

func testClient(baseURL string) *Client {
	rc := remote.NewClient(domain.SourceNews, "NY Times", remote.Options{Timeout: 5 * time.Second},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewClient(baseURL, testAPIKey, rc)
}

func fixtureDocs(n int) string {
	docs := make([]string, n)
	for i := range docs {
		docs[i] = fmt.Sprintf(`{"headline":{"main":"Headline %d"},"abstract":"Abstract %d","web_url":"https://nytimes.com/%d"}`, i, i, i)
	}
	return `{"status":"OK","response":{"docs":[` + strings.Join(docs, ",") + `]}}`
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

func TestClient_Fetch_BuildsFirstPublishedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "firstPublished=20240320", r.URL.Query().Get("fq"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("api-key"))
		_, _ = w.Write([]byte(fixtureDocs(1)))
	}))
	defer srv.Close()

	articles, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, domain.NewsArticle{
		Headline: "Headline 0",
		Summary:  "Abstract 0",
		URL:      "https://nytimes.com/0",
	}, articles[0])
}

func TestClient_Fetch_TruncatesToFiveInSourceOrder(t *testing.T) {
	srv := serve(t, http.StatusOK, fixtureDocs(8))

	articles, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, articles, MaxArticles)
	for i, a := range articles {
		assert.Equal(t, fmt.Sprintf("Headline %d", i), a.Headline)
	}
}

func TestClient_Fetch_FewerThanLimit(t *testing.T) {
	srv := serve(t, http.StatusOK, fixtureDocs(3))

	articles, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	assert.Len(t, articles, 3)
}

func TestClient_Fetch_PartialFieldsTolerated(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"response":{"docs":[{"web_url":"https://nytimes.com/x"}]}}`)

	articles, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Empty(t, articles[0].Headline)
	assert.Equal(t, "https://nytimes.com/x", articles[0].URL)
}

func TestClient_Fetch_InvalidDate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	for _, date := range []string{"2024/03/20", "2024-13-45"} {
		_, err := testClient(srv.URL).Fetch(context.Background(), date)
		require.ErrorIs(t, err, domain.ErrInvalidDate)
		assert.Contains(t, err.Error(), "Invalid date format")
	}
	assert.Zero(t, hits.Load())
}

func TestClient_Fetch_ServerError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, `{}`)

	_, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
	require.Error(t, err)
	assert.Equal(t, domain.KindRemote, domain.KindOf(err))
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Fetch_ShapeAnomalies(t *testing.T) {
	bodies := map[string]string{
		"missing response": `{"status":"OK"}`,
		"missing docs":     `{"response":{}}`,
		"null docs":        `{"response":{"docs":null}}`,
		"docs not array":   `{"response":{"docs":"nope"}}`,
		"not json":         `rate limited`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, body)

			articles, err := testClient(srv.URL).Fetch(context.Background(), "2024-03-20")
			require.NoError(t, err)
			assert.NotNil(t, articles)
			assert.Empty(t, articles)
		})
	}
}

func TestClient_Fetch_Idempotent(t *testing.T) {
	srv := serve(t, http.StatusOK, fixtureDocs(8))
	c := testClient(srv.URL)

	first, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), "2024-03-20")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated fetch mismatch (-first +second):\n%s", diff)
	}
}
