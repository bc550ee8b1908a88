// Package remote is the HTTP JSON transport shared by the source adapters.
//
// [Fetch] implements the contract every adapter follows: reject invalid dates
// before touching the network, surface non-2xx and transport failures as
// *domain.RemoteError, and absorb *domain.ShapeAnomaly into an empty result.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 10 << 20

// Request outcomes recorded in source_requests_total.
const (
	outcomeSuccess      = "success"
	outcomeInvalidDate  = "invalid_date"
	outcomeRemoteError  = "remote_error"
	outcomeShapeAnomaly = "shape_anomaly"
)

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second; <= 0 disables limiting
}

// Client performs rate-limited GET requests against one source.
type Client struct {
	source     domain.SourceID
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Request is a fully built upstream GET.
type Request struct {
	URL    string
	Header http.Header
}

// NewClient creates a transport for the given source. name is the
// human-readable API name used in error messages, e.g. "USGS".
func NewClient(source domain.SourceID, name string, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &Client{
		source: source,
		name:   name,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: limiter,
		metrics: metrics,
		logger:  logger.With("source", string(source)),
	}
}

// Fetch validates date, issues the request produced by build, and normalizes
// the body. A *domain.ShapeAnomaly (or any other normalize error) is logged
// and absorbed: Fetch then returns an empty, non-nil slice and a nil error.
func Fetch[T any](
	ctx context.Context,
	c *Client,
	date string,
	build func(domain.DateKey) Request,
	normalize func(body []byte, date domain.DateKey) ([]T, error),
) ([]T, error) {
	key, err := domain.ParseDateKey(date)
	if err != nil {
		c.record(outcomeInvalidDate)
		return nil, err
	}

	body, err := c.get(ctx, build(key))
	if err != nil {
		c.record(outcomeRemoteError)
		return nil, err
	}

	records, err := normalize(body, key)
	if err != nil {
		c.absorb(key, err)
		return []T{}, nil
	}
	if records == nil {
		records = []T{}
	}
	c.record(outcomeSuccess)
	return records, nil
}

// Anomaly builds a *domain.ShapeAnomaly attributed to this client's source.
func (c *Client) Anomaly(reason string, err error) *domain.ShapeAnomaly {
	return &domain.ShapeAnomaly{Source: c.name, Reason: reason, Err: err}
}

func (c *Client) get(ctx context.Context, r Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.RemoteError{Source: c.name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := domain.Clock().Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.SourceRequestDuration.WithLabelValues(string(c.source)).Observe(domain.Clock().Since(start).Seconds())
	if err != nil {
		return nil, &domain.RemoteError{Source: c.name, Err: stripQuery(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("upstream returned non-success status",
			"status", resp.StatusCode,
			"path", req.URL.Path,
			"body", string(snippet),
		)
		return nil, &domain.RemoteError{Source: c.name, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.RemoteError{Source: c.name, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

func (c *Client) absorb(date domain.DateKey, err error) {
	var anomaly *domain.ShapeAnomaly
	if !errors.As(err, &anomaly) {
		anomaly = c.Anomaly("normalize", err)
	}
	c.logger.Warn("unexpected response shape, returning no records",
		"date", date.String(),
		"reason", anomaly.Reason,
		"error", anomaly,
	)
	c.metrics.ShapeAnomalies.WithLabelValues(string(c.source)).Inc()
	c.record(outcomeShapeAnomaly)
}

func (c *Client) record(outcome string) {
	c.metrics.SourceRequests.WithLabelValues(string(c.source), outcome).Inc()
}

// stripQuery removes the query string from a *url.Error so credentials
// embedded as query parameters never reach logs or callers.
func stripQuery(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		u.RawQuery = ""
		return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
	}
	return err
}
