package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts accepted phone orders by payment method.
	OrdersCreatedTotal *prometheus.CounterVec
	// PaymentRejectionsTotal counts orders rejected by payment constraints.
	PaymentRejectionsTotal *prometheus.CounterVec
	// CalcDuration observes the order total computation latency.
	CalcDuration prometheus.Histogram
	// CSVExportsTotal counts generated CSV export files.
	CSVExportsTotal prometheus.Counter
	// PostalLookupsTotal counts postal code lookups by source.
	PostalLookupsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics registers order domain metrics exactly once.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders created, labeled by payment method.",
		}, []string{"payment_method"})
		PaymentRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "orders",
			Name:      "payment_rejections_total",
			Help:      "Orders rejected because the payment method constraints were violated.",
		}, []string{"payment_method"})
		CalcDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kikite",
			Subsystem: "calc",
			Name:      "compute_duration_ms",
			Help:      "Order total computation duration in milliseconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		})
		CSVExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "export",
			Name:      "csv_total",
			Help:      "Total number of CSV export files generated.",
		})
		PostalLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kikite",
			Subsystem: "postal",
			Name:      "lookups_total",
			Help:      "Postal code lookups, labeled by resolution source.",
		}, []string{"source"})

		reg.MustRegister(OrdersCreatedTotal, PaymentRejectionsTotal, CalcDuration, CSVExportsTotal, PostalLookupsTotal)
	})
}
