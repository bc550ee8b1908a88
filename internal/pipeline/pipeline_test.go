package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/observability"
	"github.com/couchcryptid/what-happened-on/internal/pipeline"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// --- mocks ---

type mockBuilder struct {
	fail map[string]bool
}

func (m *mockBuilder) Build(_ context.Context, date string) (report.Report, error) {
	if m.fail[date] {
		return report.Report{}, domain.ErrInvalidDate
	}
	return report.Report{Date: date}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	batches  [][]string
	failures int
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	dates := make([]string, 0, len(reports))
	for _, r := range reports {
		dates = append(dates, r.Date)
	}
	m.batches = append(m.batches, dates)
	return nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRange(t *testing.T, from, to string) *pipeline.DateRange {
	t.Helper()
	r, err := pipeline.NewDateRange(from, to)
	require.NoError(t, err)
	return r
}

// --- date range ---

func TestDateRange_CrossesMonthAndLeapDay(t *testing.T) {
	r := newRange(t, "2024-02-27", "2024-03-02")

	first, err := r.ExtractBatch(context.Background(), 3)
	require.NoError(t, err)
	second, err := r.ExtractBatch(context.Background(), 3)
	require.NoError(t, err)
	_, err = r.ExtractBatch(context.Background(), 3)
	require.ErrorIs(t, err, io.EOF)

	if diff := cmp.Diff([]string{"2024-02-27", "2024-02-28", "2024-02-29"}, first); diff != "" {
		t.Fatalf("first batch mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2024-03-01", "2024-03-02"}, second); diff != "" {
		t.Fatalf("second batch mismatch (-want +got):\n%s", diff)
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	r := newRange(t, "2024-03-20", "2024-03-20")
	dates, err := r.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-20"}, dates)
}

func TestNewDateRange_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
	}{
		{"invalid from", "2023-02-29", "2023-03-01"},
		{"invalid to", "2024-03-01", "2024-13-01"},
		{"reversed", "2024-03-02", "2024-03-01"},
		{"too long", "2022-01-01", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.NewDateRange(tt.from, tt.to)
			assert.Error(t, err)
		})
	}
}

func TestDateRange_CancelledContext(t *testing.T) {
	r := newRange(t, "2024-03-01", "2024-03-05")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ExtractBatch(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- pipeline ---

func TestPipeline_Run_LoadsEveryDateInBatches(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-05"), &mockBuilder{}, ldr,
		discardLogger(), metrics, pipeline.WithBatchSize(2))

	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, pipeline.Summary{Dates: 5, Loaded: 5, Batches: 3}, sum)
	assert.Equal(t, [][]string{
		{"2024-03-01", "2024-03-02"},
		{"2024-03-03", "2024-03-04"},
		{"2024-03-05"},
	}, ldr.batches)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.BackfillLoaded), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.OutcomesPublished), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.BackfillRunning), 0)
}

type tickingBuilder struct {
	clock *clockwork.FakeClock
	step  time.Duration
}

func (b *tickingBuilder) Build(_ context.Context, date string) (report.Report, error) {
	b.clock.Advance(b.step)
	return report.Report{Date: date}, nil
}

func TestPipeline_Run_BatchDurationUsesDomainClock(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-04"), &tickingBuilder{clock: fc, step: 2 * time.Second},
		&mockLoader{}, discardLogger(), metrics, pipeline.WithBatchSize(2))

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	var pb dto.Metric
	require.NoError(t, metrics.BackfillBatchDuration.Write(&pb))
	assert.Equal(t, uint64(2), pb.GetHistogram().GetSampleCount())
	assert.InDelta(t, 8, pb.GetHistogram().GetSampleSum(), 0.001)
}

func TestPipeline_Run_SkipsDatesThatFailToBuild(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	b := &mockBuilder{fail: map[string]bool{"2024-03-02": true}}
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-03"), b, ldr, discardLogger(), metrics)

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Loaded)
	assert.Equal(t, [][]string{{"2024-03-01", "2024-03-03"}}, ldr.batches)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.BackfillSkipped), 0)
}

func TestPipeline_Run_RetriesLoadWithBackoff(t *testing.T) {
	ldr := &mockLoader{failures: 2}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-01"), &mockBuilder{}, ldr,
		discardLogger(), metrics, pipeline.WithBackoff(time.Millisecond))

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ldr.calls)
	assert.Equal(t, 1, sum.Loaded)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPipeline_Run_GivesUpAfterMaxAttempts(t *testing.T) {
	ldr := &mockLoader{failures: 10}
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-01"), &mockBuilder{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(),
		pipeline.WithBackoff(time.Millisecond), pipeline.WithMaxAttempts(3))

	sum, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, ldr.calls)
	assert.Equal(t, 0, sum.Loaded)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-05"), &mockBuilder{}, ldr,
		discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.batches)
}

func TestPipeline_Run_CancelDuringBackoff(t *testing.T) {
	ldr := &mockLoader{failures: 10}
	p := pipeline.New(newRange(t, "2024-03-01", "2024-03-01"), &mockBuilder{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(), pipeline.WithBackoff(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
