package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resilienceOnce sync.Once

	// BreakerState exposes the current state per dependency (0 closed, 1 open, 2 half-open).
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts state transitions per dependency.
	BreakerTransitions *prometheus.CounterVec
	// BreakerOpenedTotal counts how often each breaker opened.
	BreakerOpenedTotal *prometheus.CounterVec
)

// MustRegisterBreakerMetrics registers circuit breaker metrics exactly once.
func MustRegisterBreakerMetrics(reg prometheus.Registerer) {
	resilienceOnce.Do(func() {
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kikite",
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state per target (0 closed, 1 open, 2 half-open).",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker state transitions per target.",
		}, []string{"target", "from", "to"})
		BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "breaker",
			Name:      "opened_total",
			Help:      "Number of times each circuit breaker opened.",
		}, []string{"target"})

		reg.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
	})
}
