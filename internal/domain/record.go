package domain

// NewsArticle is a single historical news item.
type NewsArticle struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// SeismicEvent is an earthquake of magnitude 4.0 or greater.
type SeismicEvent struct {
	Place             string  `json:"place"`
	Magnitude         float64 `json:"magnitude"`
	OccurredAtEpochMs int64   `json:"occurred_at_epoch_ms"`
	DetailURL         string  `json:"detail_url"`
}

// CloseApproachObject is an asteroid making a close approach on the date.
type CloseApproachObject struct {
	Name              string  `json:"name"`
	MinDiameterMeters float64 `json:"min_diameter_meters"`
	MaxDiameterMeters float64 `json:"max_diameter_meters"`
	MissDistanceKm    float64 `json:"miss_distance_km"`
	VelocityKmPerHour float64 `json:"velocity_km_per_hour"`
	Hazardous         bool    `json:"hazardous"`
	ReferenceURL      string  `json:"reference_url"`
}

// IntensityBand is the qualitative carbon-intensity category.
type IntensityBand string

const (
	BandVeryLow  IntensityBand = "very low"
	BandLow      IntensityBand = "low"
	BandModerate IntensityBand = "moderate"
	BandHigh     IntensityBand = "high"
	BandVeryHigh IntensityBand = "very high"
)

// Known reports whether b is one of the five published bands.
func (b IntensityBand) Known() bool {
	switch b {
	case BandVeryLow, BandLow, BandModerate, BandHigh, BandVeryHigh:
		return true
	default:
		return false
	}
}

// FuelShare is one entry of a generation mix.
type FuelShare struct {
	Fuel       string  `json:"fuel"`
	Percentage float64 `json:"percentage"`
}

// IntensityInterval is a half-hour window of GB grid carbon intensity.
type IntensityInterval struct {
	FromUTC            string        `json:"from_utc"`
	ToUTC              string        `json:"to_utc"`
	ForecastGCO2PerKWh float64       `json:"forecast_gco2_per_kwh"`
	ActualGCO2PerKWh   *float64      `json:"actual_gco2_per_kwh,omitempty"` // nil when not yet measured
	Band               IntensityBand `json:"band"`
	GenerationMix      []FuelShare   `json:"generation_mix,omitempty"` // nil when the source omits it
}
