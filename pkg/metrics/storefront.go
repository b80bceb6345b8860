package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records checkout and payment outcomes.
type StorefrontMetrics struct {
	ordersCreated    prometheus.Counter
	checkoutFailures *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	paymentEvents    *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully placed through checkout.",
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts that failed, by pipeline stage.",
	}, []string{"stage"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of the checkout pipeline in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	paymentEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_total",
		Help: "Payment webhook events processed, by provider and result.",
	}, []string{"provider", "result"})
	reg.MustRegister(ordersCreated, checkoutFailures, checkoutDuration, paymentEvents)
	return &StorefrontMetrics{
		ordersCreated:    ordersCreated,
		checkoutFailures: checkoutFailures,
		checkoutDuration: checkoutDuration,
		paymentEvents:    paymentEvents,
	}
}

// IncOrderCreated counts a successfully placed order.
func (m *StorefrontMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncCheckoutFailure counts a failed checkout attempt at the named stage.
func (m *StorefrontMetrics) IncCheckoutFailure(stage string) {
	if m == nil || m.checkoutFailures == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

// ObserveCheckoutDuration records how long the checkout pipeline took.
func (m *StorefrontMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	m.checkoutDuration.Observe(duration.Seconds())
}

// IncPaymentEvent counts a processed webhook event.
func (m *StorefrontMetrics) IncPaymentEvent(provider, result string) {
	if m == nil || m.paymentEvents == nil {
		return
	}
	m.paymentEvents.WithLabelValues(normalizeLabel(provider), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
