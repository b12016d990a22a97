package goskemaform

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation pass results used as the "result" label.
const (
	resultValid   = "valid"
	resultInvalid = "invalid"
	resultFailed  = "failed"
)

// Metrics holds the engine collectors. A nil *Metrics records nothing, so
// Forms built without one pay no cost.
type Metrics struct {
	passes     *prometheus.CounterVec
	duration   prometheus.Histogram
	stale      prometheus.Counter
	evictions  *prometheus.CounterVec
	structural *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Several
// Forms may share one Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		passes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goskemaform_validation_passes_total",
			Help: "Validation passes applied, by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "goskemaform_validation_duration_seconds",
			Help:    "Validator invocation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}),
		stale: f.NewCounter(prometheus.CounterOpts{
			Name: "goskemaform_validation_stale_total",
			Help: "Validation results discarded because a later pass was issued",
		}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goskemaform_cache_evictions_total",
			Help: "Cache entries dropped by a size bound, by cache",
		}, []string{"cache"}),
		structural: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goskemaform_structural_mutations_total",
			Help: "Array structural mutation descriptors applied, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observePass(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) incStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *Metrics) incEviction(cache string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(cache).Inc()
}

func (m *Metrics) incStructural(kind string) {
	if m == nil {
		return
	}
	m.structural.WithLabelValues(kind).Inc()
}
