// Package report resolves every source for a date concurrently.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
)

// ErrUnknownSource is returned for a source id outside the catalog.
var ErrUnknownSource = errors.New("unknown source")

// Report holds one independent outcome per source for a single date.
type Report struct {
	Date      string                                        `json:"date"`
	News      lifecycle.Outcome[domain.NewsArticle]         `json:"nytimes"`
	Seismic   lifecycle.Outcome[domain.SeismicEvent]        `json:"earthquakes"`
	Asteroids lifecycle.Outcome[domain.CloseApproachObject] `json:"asteroids"`
	Intensity lifecycle.Outcome[domain.IntensityInterval]   `json:"carbon-intensity"`
	BuiltAt   time.Time                                     `json:"built_at"`
}

// States returns each source's settled state keyed by source id.
func (r Report) States() map[domain.SourceID]lifecycle.State {
	return map[domain.SourceID]lifecycle.State{
		domain.SourceNews:      r.News.State,
		domain.SourceSeismic:   r.Seismic.State,
		domain.SourceAsteroids: r.Asteroids.State,
		domain.SourceIntensity: r.Intensity.State,
	}
}

// Fetchers are the four source adapters a Service resolves.
type Fetchers struct {
	News      lifecycle.Fetcher[domain.NewsArticle]
	Seismic   lifecycle.Fetcher[domain.SeismicEvent]
	Asteroids lifecycle.Fetcher[domain.CloseApproachObject]
	Intensity lifecycle.Fetcher[domain.IntensityInterval]
}

// Publisher emits a built report downstream.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

// Service builds reports and single-source outcomes.
type Service struct {
	fetchers  Fetchers
	obs       lifecycle.Observer
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a report service. publisher may be nil to disable
// publishing.
func NewService(f Fetchers, obs lifecycle.Observer, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		fetchers:  f,
		obs:       obs,
		publisher: publisher,
		logger:    logger,
	}
}

// Build resolves all four sources for date. It fails only when date is not a
// valid calendar date; source failures are reported in their outcomes.
func (s *Service) Build(ctx context.Context, date string) (Report, error) {
	if !domain.IsValidCalendarDate(date) {
		return Report{}, domain.ErrInvalidDate
	}

	r := Report{Date: date}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.News = lifecycle.Resolve(gctx, s.obs, s.fetchers.News, mustSource(domain.SourceNews), date)
		return nil
	})
	g.Go(func() error {
		r.Seismic = lifecycle.Resolve(gctx, s.obs, s.fetchers.Seismic, mustSource(domain.SourceSeismic), date)
		return nil
	})
	g.Go(func() error {
		r.Asteroids = lifecycle.Resolve(gctx, s.obs, s.fetchers.Asteroids, mustSource(domain.SourceAsteroids), date)
		return nil
	})
	g.Go(func() error {
		r.Intensity = lifecycle.Resolve(gctx, s.obs, s.fetchers.Intensity, mustSource(domain.SourceIntensity), date)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	r.BuiltAt = domain.Clock().Now().UTC()

	s.publish(ctx, r)
	return r, nil
}

func (s *Service) publish(ctx context.Context, r Report) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, r); err != nil {
		if s.obs.Metrics != nil {
			s.obs.Metrics.PublishErrors.Inc()
		}
		s.logger.Error("publish report failed", "date", r.Date, "error", err)
		return
	}
	if s.obs.Metrics != nil {
		s.obs.Metrics.OutcomesPublished.Inc()
	}
}

// Outcome resolves a single source for date. An invalid date settles as an
// Error outcome, not a returned error.
func (s *Service) Outcome(ctx context.Context, date string, id domain.SourceID) (any, error) {
	src, ok := domain.LookupSource(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, id)
	}
	switch id {
	case domain.SourceNews:
		return lifecycle.Resolve(ctx, s.obs, s.fetchers.News, src, date), nil
	case domain.SourceSeismic:
		return lifecycle.Resolve(ctx, s.obs, s.fetchers.Seismic, src, date), nil
	case domain.SourceAsteroids:
		return lifecycle.Resolve(ctx, s.obs, s.fetchers.Asteroids, src, date), nil
	case domain.SourceIntensity:
		return lifecycle.Resolve(ctx, s.obs, s.fetchers.Intensity, src, date), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, id)
}

// CheckReadiness reports whether every source has an adapter wired.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.fetchers.News == nil || s.fetchers.Seismic == nil ||
		s.fetchers.Asteroids == nil || s.fetchers.Intensity == nil {
		return errors.New("source adapters not configured")
	}
	return nil
}

func mustSource(id domain.SourceID) domain.Source {
	src, ok := domain.LookupSource(id)
	if !ok {
		panic(fmt.Sprintf("source %q missing from catalog", id))
	}
	return src
}
