package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "what_happened"

// Metrics holds the Prometheus counters and histograms for source fetches and
// their lifecycle outcomes.
type Metrics struct {
	// Source adapter metrics.
	SourceRequests        *prometheus.CounterVec   // labels: source, outcome={success,remote_error,invalid_date,shape_anomaly}
	SourceRequestDuration *prometheus.HistogramVec // labels: source
	ShapeAnomalies        *prometheus.CounterVec   // labels: source

	// Lifecycle metrics.
	Outcomes           *prometheus.CounterVec // labels: source, state={content,empty,error}
	OutcomesSuperseded *prometheus.CounterVec // labels: source

	OutcomesPublished prometheus.Counter
	PublishErrors     prometheus.Counter

	// Backfill metrics.
	BackfillRunning       prometheus.Gauge
	BackfillBatchDuration prometheus.Histogram
	BackfillSkipped       prometheus.Counter
	BackfillLoaded        prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg. Short-lived
// commands pass their own prometheus.NewRegistry().
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.SourceRequests,
		m.SourceRequestDuration,
		m.ShapeAnomalies,
		m.Outcomes,
		m.OutcomesSuperseded,
		m.OutcomesPublished,
		m.PublishErrors,
		m.BackfillRunning,
		m.BackfillBatchDuration,
		m.BackfillSkipped,
		m.BackfillLoaded,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Source adapter fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ShapeAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shape_anomalies_total",
			Help:      "Successful responses whose body did not match the expected structure.",
		}, []string{"source"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Settled fetch outcomes by source and terminal state.",
		}, []string{"source", "state"}),
		OutcomesSuperseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_superseded_total",
			Help:      "Outcomes discarded because a newer date was selected before they settled.",
		}, []string{"source"}),
		OutcomesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_published_total",
			Help:      "Date reports written to the outcome topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed writes to the outcome topic.",
		}),
		BackfillRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backfill_running",
			Help:      "Whether a backfill run is in progress (1 = running, 0 = stopped).",
		}),
		BackfillBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backfill_batch_duration_seconds",
			Help:      "Time to build and load one batch of date reports.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		BackfillSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_skipped_total",
			Help:      "Dates skipped during backfill because no report could be built.",
		}),
		BackfillLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_loaded_total",
			Help:      "Reports handed to the backfill loader.",
		}),
	}
}
