package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/lifecycle"
)

// View holds the most recently selected date for all four sources. Selecting
// a new date supersedes every fetch still in flight.
type View struct {
	news      *lifecycle.Controller[domain.NewsArticle]
	seismic   *lifecycle.Controller[domain.SeismicEvent]
	asteroids *lifecycle.Controller[domain.CloseApproachObject]
	intensity *lifecycle.Controller[domain.IntensityInterval]
}

// NewView creates a View over the service's adapters with nothing selected.
func (s *Service) NewView() *View {
	return &View{
		news:      lifecycle.NewController(mustSource(domain.SourceNews), s.fetchers.News, s.obs),
		seismic:   lifecycle.NewController(mustSource(domain.SourceSeismic), s.fetchers.Seismic, s.obs),
		asteroids: lifecycle.NewController(mustSource(domain.SourceAsteroids), s.fetchers.Asteroids, s.obs),
		intensity: lifecycle.NewController(mustSource(domain.SourceIntensity), s.fetchers.Intensity, s.obs),
	}
}

// Select starts fetching date on every source. All four sources move to
// Loading immediately.
func (v *View) Select(ctx context.Context, date string) {
	v.news.Select(ctx, date)
	v.seismic.Select(ctx, date)
	v.asteroids.Select(ctx, date)
	v.intensity.Select(ctx, date)
}

// Current returns a snapshot of every source. Sources still fetching are in
// the Loading state.
func (v *View) Current() Report {
	r := Report{
		News:      v.news.Current(),
		Seismic:   v.seismic.Current(),
		Asteroids: v.asteroids.Current(),
		Intensity: v.intensity.Current(),
	}
	r.Date = r.News.Date
	return r
}

// Wait blocks until every source has settled for the same, most recently
// selected date.
func (v *View) Wait(ctx context.Context) (Report, error) {
	for {
		if _, err := v.news.Wait(ctx); err != nil {
			return Report{}, err
		}
		if _, err := v.seismic.Wait(ctx); err != nil {
			return Report{}, err
		}
		if _, err := v.asteroids.Wait(ctx); err != nil {
			return Report{}, err
		}
		if _, err := v.intensity.Wait(ctx); err != nil {
			return Report{}, err
		}

		r := v.Current()
		if settledFor(r, r.Date) {
			r.BuiltAt = domain.Clock().Now().UTC()
			return r, nil
		}
	}
}

// Load selects date on every source and waits for each to settle.
func (v *View) Load(ctx context.Context, date string) (Report, error) {
	r := Report{Date: date}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.News, err = v.news.Load(gctx, date)
		return err
	})
	g.Go(func() (err error) {
		r.Seismic, err = v.seismic.Load(gctx, date)
		return err
	})
	g.Go(func() (err error) {
		r.Asteroids, err = v.asteroids.Load(gctx, date)
		return err
	})
	g.Go(func() (err error) {
		r.Intensity, err = v.intensity.Load(gctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	r.BuiltAt = domain.Clock().Now().UTC()
	return r, nil
}

// Close cancels every fetch in flight.
func (v *View) Close() {
	v.news.Close()
	v.seismic.Close()
	v.asteroids.Close()
	v.intensity.Close()
}

func settledFor(r Report, date string) bool {
	return r.News.State.Settled() && r.News.Date == date &&
		r.Seismic.State.Settled() && r.Seismic.Date == date &&
		r.Asteroids.State.Settled() && r.Asteroids.Date == date &&
		r.Intensity.State.Settled() && r.Intensity.Date == date
}
