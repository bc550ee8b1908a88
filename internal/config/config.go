package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Default upstream endpoints. Each can be overridden for testing or proxies.
const (
	DefaultNYTBaseURL             = "https://api.nytimes.com/svc/search/v2/articlesearch.json"
	DefaultUSGSBaseURL            = "https://earthquake.usgs.gov/fdsnws/event/1/query"
	DefaultNASABaseURL            = "https://api.nasa.gov/neo/rest/v1/feed"
	DefaultCarbonIntensityBaseURL = "https://api.carbonintensity.org.uk"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Source adapter configuration.
	SourceTimeout   time.Duration
	SourceRateLimit float64 // requests per second, per source

	NYTAPIKey              string
	NYTBaseURL             string
	NASAAPIKey             string
	NASABaseURL            string
	USGSBaseURL            string
	CarbonIntensityBaseURL string

	// Outcome publishing (disabled when no brokers are configured).
	KafkaBrokers      []string
	KafkaOutcomeTopic string
	PublishEnabled    bool

	// Dates built per backfill batch before loading.
	BatchSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOURCE_TIMEOUT", "10s"))
	if err != nil || sourceTimeout <= 0 {
		return nil, errors.New("invalid SOURCE_TIMEOUT")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SOURCE_RATE_LIMIT", "2"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid SOURCE_RATE_LIMIT: must be a positive number")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	publishEnabled := len(brokers) > 0
	if v := os.Getenv("PUBLISH_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SourceTimeout:   sourceTimeout,
		SourceRateLimit: rateLimit,

		NYTAPIKey:              os.Getenv("NYT_API_KEY"),
		NYTBaseURL:             sharedcfg.EnvOrDefault("NYT_BASE_URL", DefaultNYTBaseURL),
		NASAAPIKey:             sharedcfg.EnvOrDefault("NASA_API_KEY", "DEMO_KEY"),
		NASABaseURL:            sharedcfg.EnvOrDefault("NASA_BASE_URL", DefaultNASABaseURL),
		USGSBaseURL:            sharedcfg.EnvOrDefault("USGS_BASE_URL", DefaultUSGSBaseURL),
		CarbonIntensityBaseURL: strings.TrimSuffix(sharedcfg.EnvOrDefault("CARBON_INTENSITY_BASE_URL", DefaultCarbonIntensityBaseURL), "/"),

		KafkaBrokers:      brokers,
		KafkaOutcomeTopic: sharedcfg.EnvOrDefault("KAFKA_OUTCOME_TOPIC", "date-outcomes"),
		PublishEnabled:    publishEnabled,

		BatchSize: batchSize,
	}

	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishEnabled && cfg.KafkaOutcomeTopic == "" {
		return nil, errors.New("KAFKA_OUTCOME_TOPIC is required when publishing is enabled")
	}

	return cfg, nil
}

// MissingCredentials lists the credential variables a source needs but that are unset.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.NYTAPIKey == "" {
		missing = append(missing, "NYT_API_KEY")
	}
	if c.NASAAPIKey == "" {
		missing = append(missing, "NASA_API_KEY")
	}
	return missing
}
