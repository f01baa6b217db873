package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records counters for the order and cart pipelines.
type StorefrontMetrics struct {
	ordersCreated       *prometheus.CounterVec
	paymentConfirmation *prometheus.CounterVec
	cartPersistFailures prometheus.Counter
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders materialized from carts.",
	}, []string{"payment_method"})
	paymentConfirmation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_confirmations_total",
		Help: "Payment confirmation attempts by method and outcome.",
	}, []string{"method", "status"})
	cartPersistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_persist_failures_total",
		Help: "Cart snapshots that could not be written to the backing store.",
	})
	reg.MustRegister(ordersCreated, paymentConfirmation, cartPersistFailures)
	return &StorefrontMetrics{
		ordersCreated:       ordersCreated,
		paymentConfirmation: paymentConfirmation,
		cartPersistFailures: cartPersistFailures,
	}
}

// IncOrderCreated increments the created-orders counter for the payment method.
func (s *StorefrontMetrics) IncOrderCreated(method string) {
	if s == nil || s.ordersCreated == nil {
		return
	}
	s.ordersCreated.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncPaymentConfirmation increments the confirmation counter for the method/outcome pair.
func (s *StorefrontMetrics) IncPaymentConfirmation(method, status string) {
	if s == nil || s.paymentConfirmation == nil {
		return
	}
	s.paymentConfirmation.WithLabelValues(normalizeLabel(method), normalizeLabel(status)).Inc()
}

// IncCartPersistFailure increments the failed cart snapshot counter.
func (s *StorefrontMetrics) IncCartPersistFailure() {
	if s == nil || s.cartPersistFailures == nil {
		return
	}
	s.cartPersistFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
