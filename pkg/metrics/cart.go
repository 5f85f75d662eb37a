package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records persistence and merge outcomes for the cart engine.
type CartMetrics struct {
	persistDuration *prometheus.HistogramVec
	persistSuccess  *prometheus.CounterVec
	persistFailure  *prometheus.CounterVec
	rollbacks       prometheus.Counter
	staleDiscards   prometheus.Counter
	mergeSuccess    prometheus.Counter
	mergeFailure    prometheus.Counter
}

// NewCartMetrics registers the cart engine metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_persist_duration_seconds",
		Help:    "Duration of cart replace-all writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	persistSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_success_total",
		Help: "Successful cart replace-all writes.",
	}, []string{"backend"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failure_total",
		Help: "Failed cart replace-all writes.",
	}, []string{"backend"})
	rollbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_rollbacks_total",
		Help: "Optimistic mutations rolled back after a failed write.",
	})
	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_stale_persist_discards_total",
		Help: "Persistence completions discarded because a newer snapshot was dispatched.",
	})
	mergeSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_merge_success_total",
		Help: "Successful guest-to-user cart merges.",
	})
	mergeFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_merge_failure_total",
		Help: "Guest-to-user cart merges that failed and preserved guest data.",
	})
	reg.MustRegister(persistDuration, persistSuccess, persistFailure, rollbacks, staleDiscards, mergeSuccess, mergeFailure)
	return &CartMetrics{
		persistDuration: persistDuration,
		persistSuccess:  persistSuccess,
		persistFailure:  persistFailure,
		rollbacks:       rollbacks,
		staleDiscards:   staleDiscards,
		mergeSuccess:    mergeSuccess,
		mergeFailure:    mergeFailure,
	}
}

// ObservePersist records one replace-all write against the named backend.
func (c *CartMetrics) ObservePersist(backend string, duration time.Duration, err error) {
	if c == nil || c.persistDuration == nil {
		return
	}
	label := normalizeLabel(backend)
	c.persistDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		c.persistFailure.WithLabelValues(label).Inc()
		return
	}
	c.persistSuccess.WithLabelValues(label).Inc()
}

// IncRollback counts an optimistic rollback.
func (c *CartMetrics) IncRollback() {
	if c == nil || c.rollbacks == nil {
		return
	}
	c.rollbacks.Inc()
}

// IncStaleDiscard counts a persistence completion ignored for being stale.
func (c *CartMetrics) IncStaleDiscard() {
	if c == nil || c.staleDiscards == nil {
		return
	}
	c.staleDiscards.Inc()
}

// IncMerge counts a merge attempt by outcome.
func (c *CartMetrics) IncMerge(err error) {
	if c == nil || c.mergeSuccess == nil {
		return
	}
	if err != nil {
		c.mergeFailure.Inc()
		return
	}
	c.mergeSuccess.Inc()
}

func normalizeLabel(backend string) string {
	if backend == "" {
		return "unknown"
	}
	return backend
}
