// Package carbonintensity fetches half-hourly GB grid carbon intensity from
// the National Grid ESO Carbon Intensity API.
package carbonintensity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// Client implements the GridCarbonIntensity source adapter.
type Client struct {
	baseURL string
	remote  *remote.Client
}

// NewClient creates a GridCarbonIntensity adapter. baseURL is the API root,
// e.g. https://api.carbonintensity.org.uk.
func NewClient(baseURL string, rc *remote.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		remote:  rc,
	}
}

// Fetch returns the date's intervals sorted ascending by start time of day.
func (c *Client) Fetch(ctx context.Context, date string) ([]domain.IntensityInterval, error) {
	return remote.Fetch(ctx, c.remote, date, c.buildRequest, c.normalize)
}

func (c *Client) buildRequest(date domain.DateKey) remote.Request {
	return remote.Request{
		URL:    c.baseURL + "/intensity/date/" + date.String(),
		Header: http.Header{"Accept": {"application/json"}},
	}
}

func (c *Client) normalize(body []byte, _ domain.DateKey) ([]domain.IntensityInterval, error) {
	var resp intensityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.remote.Anomaly("decode intensity", err)
	}
	if resp.Data == nil {
		return nil, c.remote.Anomaly("missing data", nil)
	}

	type keyed struct {
		key      string
		interval domain.IntensityInterval
	}
	rows := make([]keyed, 0, len(*resp.Data))
	for i, e := range *resp.Data {
		if e.Intensity == nil || e.Intensity.Forecast == nil {
			return nil, c.remote.Anomaly(fmt.Sprintf("entry %d missing intensity forecast", i), nil)
		}
		key, ok := timeOfDay(e.From)
		if !ok {
			return nil, c.remote.Anomaly(fmt.Sprintf("entry %d has malformed from %q", i, e.From), nil)
		}

		interval := domain.IntensityInterval{
			FromUTC:            e.From,
			ToUTC:              e.To,
			ForecastGCO2PerKWh: *e.Intensity.Forecast,
			ActualGCO2PerKWh:   e.Intensity.Actual,
			Band:               domain.IntensityBand(e.Intensity.Index),
		}
		if e.GenerationMix != nil {
			interval.GenerationMix = make([]domain.FuelShare, 0, len(*e.GenerationMix))
			for _, f := range *e.GenerationMix {
				interval.GenerationMix = append(interval.GenerationMix, domain.FuelShare{Fuel: f.Fuel, Percentage: f.Perc})
			}
		}
		rows = append(rows, keyed{key: key, interval: interval})
	}

	// Ordering by HH:mm alone is only correct while every interval belongs to
	// the single requested day.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	intervals := make([]domain.IntensityInterval, len(rows))
	for i, r := range rows {
		intervals[i] = r.interval
	}
	return intervals, nil
}

// timeOfDay extracts the HH:mm that follows the "T" in an ISO-8601 instant.
func timeOfDay(from string) (string, bool) {
	_, after, found := strings.Cut(from, "T")
	if !found || len(after) < 5 {
		return "", false
	}
	return after[:5], true
}

// Carbon Intensity API response types.

type intensityResponse struct {
	Data *[]entry `json:"data"`
}

type entry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Intensity *struct {
		Forecast *float64 `json:"forecast"`
		Actual   *float64 `json:"actual"`
		Index    string   `json:"index"`
	} `json:"intensity"`
	GenerationMix *[]struct {
		Fuel string  `json:"fuel"`
		Perc float64 `json:"perc"`
	} `json:"generationmix"`
}
