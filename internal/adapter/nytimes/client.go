// Package nytimes fetches historical articles from the NY Times Article Search API.
package nytimes

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// MaxArticles is the fixed head-truncation applied to every response.
const MaxArticles = 5

// Client implements the News source adapter.
type Client struct {
	apiKey  string
	baseURL string
	remote  *remote.Client
}

// NewClient creates a News adapter.
func NewClient(baseURL, apiKey string, rc *remote.Client) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		remote:  rc,
	}
}

// Fetch returns up to MaxArticles articles first published on date, in
// source order.
func (c *Client) Fetch(ctx context.Context, date string) ([]domain.NewsArticle, error) {
	return remote.Fetch(ctx, c.remote, date, c.buildRequest, c.normalize)
}

func (c *Client) buildRequest(date domain.DateKey) remote.Request {
	params := url.Values{
		"fq":      {"firstPublished=" + date.Compact()},
		"api-key": {c.apiKey},
	}
	return remote.Request{URL: c.baseURL + "?" + params.Encode()}
}

func (c *Client) normalize(body []byte, _ domain.DateKey) ([]domain.NewsArticle, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.remote.Anomaly("decode article search response", err)
	}
	if resp.Response == nil || resp.Response.Docs == nil {
		return nil, c.remote.Anomaly("missing response.docs", nil)
	}

	docs := *resp.Response.Docs
	if len(docs) > MaxArticles {
		docs = docs[:MaxArticles]
	}

	articles := make([]domain.NewsArticle, 0, len(docs))
	for _, d := range docs {
		articles = append(articles, domain.NewsArticle{
			Headline: d.Headline.Main,
			Summary:  d.Abstract,
			URL:      d.WebURL,
		})
	}
	return articles, nil
}

// Article Search API response types.

type searchResponse struct {
	Response *struct {
		Docs *[]document `json:"docs"`
	} `json:"response"`
}

type document struct {
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Abstract string `json:"abstract"`
	WebURL   string `json:"web_url"`
}
