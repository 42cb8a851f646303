// Package metrics exposes Prometheus instrumentation for the sync path.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics records remote write, rollback and reconciliation activity.
type Metrics struct {
	writes     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	reverts    *prometheus.CounterVec
	dirty      *prometheus.CounterVec
	reconciles *prometheus.CounterVec
	cached     prometheus.Gauge
}

// New registers the metrics on reg. A nil registerer yields a no-op Metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatchboard",
			Name:      "remote_writes_total",
			Help:      "Remote writes issued after optimistic mutations.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dispatchboard",
			Name:      "remote_write_duration_seconds",
			Help:      "Duration of remote writes including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		reverts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatchboard",
			Name:      "cache_reverts_total",
			Help:      "Optimistic mutations rolled back after a failed write.",
		}, []string{"action"}),
		dirty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatchboard",
			Name:      "cache_dirty_total",
			Help:      "Orders flagged for reconciliation after a failed write.",
		}, []string{"action"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatchboard",
			Name:      "reconciliations_total",
			Help:      "Reconciliation attempts of dirty orders.",
		}, []string{"outcome"}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispatchboard",
			Name:      "cached_orders",
			Help:      "Orders currently held in the local cache.",
		}),
	}
	reg.MustRegister(m.writes, m.duration, m.reverts, m.dirty, m.reconciles, m.cached)
	return m
}

// ObserveWrite records one remote write. err == nil counts as success.
func (m *Metrics) ObserveWrite(action string, d time.Duration, err error) {
	if m == nil || m.writes == nil {
		return
	}
	action = normalizeLabel(action)
	m.writes.WithLabelValues(action, outcome(err)).Inc()
	m.duration.WithLabelValues(action).Observe(d.Seconds())
}

// IncSkipped counts a write that stayed local.
func (m *Metrics) IncSkipped(action string) {
	if m == nil || m.writes == nil {
		return
	}
	m.writes.WithLabelValues(normalizeLabel(action), OutcomeSkipped).Inc()
}

func (m *Metrics) IncRevert(action string) {
	if m == nil || m.reverts == nil {
		return
	}
	m.reverts.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *Metrics) IncDirty(action string) {
	if m == nil || m.dirty == nil {
		return
	}
	m.dirty.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveReconcile records the outcome of one reconciliation attempt.
func (m *Metrics) ObserveReconcile(err error) {
	if m == nil || m.reconciles == nil {
		return
	}
	m.reconciles.WithLabelValues(outcome(err)).Inc()
}

// SetCachedOrders publishes the current cache size.
func (m *Metrics) SetCachedOrders(n int) {
	if m == nil || m.cached == nil {
		return
	}
	m.cached.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(action string) string {
	if action == "" {
		return "unknown"
	}
	return action
}
