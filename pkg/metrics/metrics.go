package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Payment pipeline counters, registered on the default registry and
// exposed through promhttp in each service main.
var (
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_payments_total",
		Help: "Payments processed, partitioned by gateway provider and final status",
	}, []string{"provider", "status"})

	PaymentErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_payment_errors_total",
		Help: "Classified payment errors by taxonomy kind",
	}, []string{"kind"})

	FraudAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_fraud_alerts_total",
		Help: "Fraud alerts raised during payment screening, by severity",
	}, []string{"severity"})

	PricingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_pricing_requests_total",
		Help: "Pricing calculations by result source (cache, oracle, fallback)",
	}, []string{"source"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_gateway_request_seconds",
		Help:    "Latency of outbound gateway provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	EscrowReleasedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_escrow_released_amount_total",
		Help: "Cumulative amount released from escrow accounts",
	})
)
