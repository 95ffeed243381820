package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		passesGrantedTotal,
		passesRevokedTotal,
		activationPollsTotal,
	)
}

var (
	passesGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_passes_granted_total",
			Help: "Access passes created, labeled by path (callback/reconcile/manual).",
		},
		[]string{"path"},
	)

	passesRevokedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_passes_revoked_total",
			Help: "Access passes revoked.",
		},
	)

	activationPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_activation_polls_total",
			Help: "Activation polling loops by outcome (activated/timeout).",
		},
		[]string{"outcome"},
	)
)

func IncPassGranted(path string) {
	passesGrantedTotal.WithLabelValues(norm(path)).Inc()
}

func IncPassRevoked() {
	passesRevokedTotal.Inc()
}

func IncActivationPoll(outcome string) {
	activationPollsTotal.WithLabelValues(norm(outcome)).Inc()
}
