package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics holds all Prometheus metrics for the auth and quota layer.
// Components accept a nil *AuthMetrics, which disables instrumentation; tests
// rely on this to avoid duplicate registration.
type AuthMetrics struct {
	APIKeyCacheHits   prometheus.Counter
	APIKeyCacheMisses prometheus.Counter
	AuthOutcomes      *prometheus.CounterVec
	QuotaRejections   prometheus.Counter
	CostAlerts        prometheus.Counter
	DeferredDropped   prometheus.Counter
}

// NewAuthMetrics initializes and registers the Prometheus metrics.
func NewAuthMetrics() *AuthMetrics {
	return &AuthMetrics{
		APIKeyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "auth",
			Name:      "api_key_cache_hits_total",
			Help:      "Total number of API key cache hits.",
		}),
		APIKeyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "auth",
			Name:      "api_key_cache_misses_total",
			Help:      "Total number of API key cache misses.",
		}),
		AuthOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "auth",
			Name:      "request_outcomes_total",
			Help:      "Authentication outcomes by result.",
		}, []string{"result"}), // result: authorized, missing_credential, invalid_credential, tenant_inactive, store_inactive, internal_error
		QuotaRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "quota",
			Name:      "store_limit_rejections_total",
			Help:      "Total number of store-limit rejections.",
		}),
		CostAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "quota",
			Name:      "cost_alerts_total",
			Help:      "Total number of cost alerts raised.",
		}),
		DeferredDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storepulse",
			Subsystem: "quota",
			Name:      "deferred_tasks_dropped_total",
			Help:      "Background validation tasks dropped because the queue was full.",
		}),
	}
}

// RecordOutcome increments the outcome counter if metrics are enabled.
func (m *AuthMetrics) RecordOutcome(result string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(result).Inc()
}
