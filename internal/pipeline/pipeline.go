// Package pipeline backfills date reports over a range of dates and loads
// them downstream in batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// DefaultBatchSize is the number of dates built before each load.
	DefaultBatchSize = 50
	// DefaultMaxAttempts is how many times a failed load is tried.
	DefaultMaxAttempts = 5
)

// BatchExtractor yields up to batchSize dates, or io.EOF when none remain.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]string, error)
}

// Builder resolves every source for a date into a report.
type Builder interface {
	Build(ctx context.Context, date string) (report.Report, error)
}

// BatchLoader writes multiple reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, reports []report.Report) error
}

// Summary counts what a Run did.
type Summary struct {
	Dates   int
	Loaded  int
	Skipped int
	Batches int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchSize sets how many dates are built before each load.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithMaxAttempts sets how many times a failed load is tried before Run
// gives up.
func WithMaxAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff overrides the initial retry delay.
func WithBackoff(d time.Duration) Option {
	return func(p *Pipeline) {
		p.backoff = d
	}
}

// Pipeline orchestrates the extract-build-load loop for a backfill.
type Pipeline struct {
	extractor   BatchExtractor
	builder     Builder
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	maxAttempts int
	backoff     time.Duration
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, b Builder, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		builder:     b,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		backoff:     initialBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run builds and loads batches until the extractor is exhausted. It stops
// early when ctx is cancelled or a batch cannot be loaded after the
// configured number of attempts.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	p.logger.Info("backfill started", "batch_size", p.batchSize)
	p.metrics.BackfillRunning.Set(1)
	defer p.metrics.BackfillRunning.Set(0)

	for {
		dates, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if errors.Is(err, io.EOF) {
			p.logger.Info("backfill finished",
				"dates", sum.Dates, "loaded", sum.Loaded, "skipped", sum.Skipped)
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("extract dates: %w", err)
		}
		if len(dates) == 0 {
			continue
		}

		if err := p.processBatch(ctx, dates, &sum); err != nil {
			return sum, err
		}
	}
}

// processBatch builds a report per date, loads the successes, and updates sum.
func (p *Pipeline) processBatch(ctx context.Context, dates []string, sum *Summary) error {
	start := domain.Clock().Now()
	sum.Dates += len(dates)

	reports := make([]report.Report, 0, len(dates))
	for _, date := range dates {
		r, err := p.builder.Build(ctx, date)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("build failed, skipping date", "date", date, "error", err)
			p.metrics.BackfillSkipped.Inc()
			sum.Skipped++
			continue
		}
		reports = append(reports, r)
	}
	if len(reports) == 0 {
		return nil
	}

	if err := p.loadWithRetry(ctx, reports); err != nil {
		return err
	}

	sum.Loaded += len(reports)
	sum.Batches++
	p.metrics.BackfillLoaded.Add(float64(len(reports)))
	p.metrics.BackfillBatchDuration.Observe(domain.Clock().Since(start).Seconds())
	p.logger.Debug("batch loaded", "first", reports[0].Date, "last", reports[len(reports)-1].Date, "size", len(reports))
	return nil
}

// loadWithRetry loads reports, backing off exponentially between attempts.
func (p *Pipeline) loadWithRetry(ctx context.Context, reports []report.Report) error {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, reports); err == nil {
			return nil
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("load batch failed", "error", err, "attempt", attempt, "batch_size", len(reports))
		if attempt == p.maxAttempts {
			break
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load batch after %d attempts: %w", p.maxAttempts, err)
}
