// Package app wires configuration into source adapters and the report service.
package app

import (
	"log/slog"

	"github.com/couchcryptid/what-happened-on/internal/adapter/carbonintensity"
	"github.com/couchcryptid/what-happened-on/internal/adapter/neows"
	"github.com/couchcryptid/what-happened-on/internal/adapter/nytimes"
	"github.com/couchcryptid/what-happened-on/internal/adapter/remote"
	"github.com/couchcryptid/what-happened-on/internal/adapter/usgs"
	"github.com/couchcryptid/what-happened-on/internal/config"
	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
	"github.com/couchcryptid/what-happened-on/internal/observability"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// NewFetchers builds one adapter per source, each with its own rate limiter.
func NewFetchers(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) report.Fetchers {
	opts := remote.Options{Timeout: cfg.SourceTimeout, RateLimit: cfg.SourceRateLimit}
	rc := func(id domain.SourceID, name string) *remote.Client {
		return remote.NewClient(id, name, opts, metrics, logger)
	}
	return report.Fetchers{
		News:      nytimes.NewClient(cfg.NYTBaseURL, cfg.NYTAPIKey, rc(domain.SourceNews, "NY Times")),
		Seismic:   usgs.NewClient(cfg.USGSBaseURL, rc(domain.SourceSeismic, "USGS")),
		Asteroids: neows.NewClient(cfg.NASABaseURL, cfg.NASAAPIKey, rc(domain.SourceAsteroids, "NASA")),
		Intensity: carbonintensity.NewClient(cfg.CarbonIntensityBaseURL, rc(domain.SourceIntensity, "Carbon Intensity")),
	}
}

// NewService builds the report service. publisher may be nil.
func NewService(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger, publisher report.Publisher) *report.Service {
	for _, name := range cfg.MissingCredentials() {
		logger.Warn("credential not set, requests to its source will likely fail", "variable", name)
	}
	obs := lifecycle.Observer{Logger: logger, Metrics: metrics}
	return report.NewService(NewFetchers(cfg, metrics, logger), obs, publisher, logger)
}
