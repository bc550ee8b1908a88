// Package neows fetches near-Earth object close approaches from NASA's NeoWs feed.
package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/domain"
)

// Client implements the NearEarthObject source adapter.
type Client struct {
	apiKey  string
	baseURL string
	remote  *remote.Client
}

// NewClient creates a NearEarthObject adapter.
func NewClient(baseURL, apiKey string, rc *remote.Client) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		remote:  rc,
	}
}

// Fetch returns the asteroids in the feed's bucket for date, in source order.
func (c *Client) Fetch(ctx context.Context, date string) ([]domain.CloseApproachObject, error) {
	return remote.Fetch(ctx, c.remote, date, c.buildRequest, c.normalize)
}

func (c *Client) buildRequest(date domain.DateKey) remote.Request {
	params := url.Values{
		"start_date": {date.String()},
		"end_date":   {date.String()},
		"api_key":    {c.apiKey},
	}
	return remote.Request{URL: c.baseURL + "?" + params.Encode()}
}

func (c *Client) normalize(body []byte, date domain.DateKey) ([]domain.CloseApproachObject, error) {
	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, c.remote.Anomaly("decode feed", err)
	}
	if feed.NearEarthObjects == nil {
		return nil, c.remote.Anomaly("missing near_earth_objects", nil)
	}

	bucket, err := c.selectBucket(feed.NearEarthObjects, date)
	if err != nil {
		return nil, err
	}

	objects := make([]domain.CloseApproachObject, 0, len(bucket))
	for i, a := range bucket {
		obj, err := c.toRecord(a)
		if err != nil {
			return nil, c.remote.Anomaly(fmt.Sprintf("asteroid %d (%s)", i, a.Name), err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// selectBucket picks the date's entry from the feed map. A single-day window
// yields exactly one bucket; when it is keyed differently from the request
// the lone bucket is still used.
func (c *Client) selectBucket(buckets map[string][]asteroid, date domain.DateKey) ([]asteroid, error) {
	if b, ok := buckets[date.String()]; ok {
		return b, nil
	}
	if len(buckets) == 1 {
		for _, b := range buckets {
			return b, nil
		}
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, c.remote.Anomaly(fmt.Sprintf("no bucket for %s (have %s)", date, strings.Join(keys, ",")), nil)
}

func (c *Client) toRecord(a asteroid) (domain.CloseApproachObject, error) {
	m := a.EstimatedDiameter.Meters
	if m == nil || m.Min == nil || m.Max == nil {
		return domain.CloseApproachObject{}, fmt.Errorf("missing estimated_diameter.meters")
	}
	if len(a.CloseApproachData) == 0 {
		return domain.CloseApproachObject{}, fmt.Errorf("missing close_approach_data")
	}
	approach := a.CloseApproachData[0]

	missKm, err := strconv.ParseFloat(strings.TrimSpace(approach.MissDistance.Kilometers), 64)
	if err != nil {
		return domain.CloseApproachObject{}, fmt.Errorf("parse miss_distance.kilometers: %w", err)
	}
	velocity, err := strconv.ParseFloat(strings.TrimSpace(approach.RelativeVelocity.KilometersPerHour), 64)
	if err != nil {
		return domain.CloseApproachObject{}, fmt.Errorf("parse relative_velocity.kilometers_per_hour: %w", err)
	}

	return domain.CloseApproachObject{
		Name:              a.Name,
		MinDiameterMeters: *m.Min,
		MaxDiameterMeters: *m.Max,
		MissDistanceKm:    missKm,
		VelocityKmPerHour: velocity,
		Hazardous:         a.Hazardous,
		ReferenceURL:      a.NasaJPLURL,
	}, nil
}

// NeoWs feed response types. Distances and velocities are numeric strings.

type feedResponse struct {
	NearEarthObjects map[string][]asteroid `json:"near_earth_objects"`
}

type asteroid struct {
	Name              string `json:"name"`
	EstimatedDiameter struct {
		Meters *struct {
			Min *float64 `json:"estimated_diameter_min"`
			Max *float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	Hazardous         bool            `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []closeApproach `json:"close_approach_data"`
	NasaJPLURL        string          `json:"nasa_jpl_url"`
}

type closeApproach struct {
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
	RelativeVelocity struct {
		KilometersPerHour string `json:"kilometers_per_hour"`
	} `json:"relative_velocity"`
}
