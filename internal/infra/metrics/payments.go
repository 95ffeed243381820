package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		purchasesTotal,
		purchaseRevenueTotal,
		gatewayCallsTotal,
		callbacksTotal,
		operationsReconciledTotal,
	)
}

var (
	purchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Purchase attempts by status (started/succeeded/failed).",
		},
		[]string{"status"},
	)

	purchaseRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_revenue_total",
			Help: "Total monetary value of settled purchases, labeled by currency.",
		},
		[]string{"currency"},
	)

	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Aggregator calls by endpoint and success.",
		},
		[]string{"endpoint", "success"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Aggregator completion callbacks by result (applied/ignored/bad_signature).",
		},
		[]string{"result"},
	)

	operationsReconciledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_operations_reconciled_total",
			Help: "Stale pending operations finalized by the reconciler.",
		},
	)
)

func IncPurchase(status string) {
	purchasesTotal.WithLabelValues(norm(status)).Inc()
}

func AddPurchaseRevenue(currency string, amount int64) {
	purchaseRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncGatewayCall(endpoint string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	gatewayCallsTotal.WithLabelValues(norm(endpoint), s).Inc()
}

func IncCallback(result string) {
	callbacksTotal.WithLabelValues(norm(result)).Inc()
}

func AddOperationsReconciled(count int) {
	operationsReconciledTotal.Add(float64(count))
}
