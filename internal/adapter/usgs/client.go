// Package usgs fetches earthquakes from the USGS FDSN event web service.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// MinMagnitude is the fixed magnitude floor sent with every query.
const MinMagnitude = 4.0

// instantLayout renders UTC instants with millisecond precision, e.g.
// 2024-03-20T23:59:59.999Z.
const instantLayout = "2006-01-02T15:04:05.000Z"

// Client implements the Seismic source adapter.
type Client struct {
	baseURL string
	remote  *remote.Client
}

// NewClient creates a Seismic adapter.
func NewClient(baseURL string, rc *remote.Client) *Client {
	return &Client{
		baseURL: baseURL,
		remote:  rc,
	}
}

// Fetch returns every magnitude 4.0+ event that occurred on date (UTC), in
// source order.
func (c *Client) Fetch(ctx context.Context, date string) ([]domain.SeismicEvent, error) {
	return remote.Fetch(ctx, c.remote, date, c.buildRequest, c.normalize)
}

func (c *Client) buildRequest(date domain.DateKey) remote.Request {
	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {date.StartOfDay().Format(instantLayout)},
		"endtime":      {date.EndOfDay().Format(instantLayout)},
		"minmagnitude": {strconv.FormatFloat(MinMagnitude, 'f', -1, 64)},
	}
	return remote.Request{URL: c.baseURL + "?" + params.Encode()}
}

func (c *Client) normalize(body []byte, _ domain.DateKey) ([]domain.SeismicEvent, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, c.remote.Anomaly("decode geojson", err)
	}
	if fc.Features == nil {
		return nil, c.remote.Anomaly("missing features", nil)
	}

	events := make([]domain.SeismicEvent, 0, len(*fc.Features))
	for i, f := range *fc.Features {
		p := f.Properties
		if p == nil {
			return nil, c.remote.Anomaly(fmt.Sprintf("feature %d missing properties", i), nil)
		}
		if p.Mag == nil || p.Time == nil {
			return nil, c.remote.Anomaly(fmt.Sprintf("feature %d missing mag or time", i), nil)
		}
		events = append(events, domain.SeismicEvent{
			Place:             p.Place,
			Magnitude:         *p.Mag,
			OccurredAtEpochMs: *p.Time,
			DetailURL:         p.URL,
		})
	}
	return events, nil
}

// GeoJSON response types.

type featureCollection struct {
	Features *[]feature `json:"features"`
}

type feature struct {
	Properties *properties `json:"properties"`
}

type properties struct {
	Place string   `json:"place"`
	Mag   *float64 `json:"mag"`
	Time  *int64   `json:"time"` // epoch milliseconds
	URL   string   `json:"url"`
}
