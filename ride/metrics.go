package ride

import "github.com/prometheus/client_golang/prometheus"

var (
	unlockAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_unlock_attempts_total",
			Help: "Unlock attempts by hardware class and outcome",
		},
		[]string{"class", "outcome"},
	)

	endConfirmTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ride_end_confirmation_timeouts_total",
			Help: "Rides ended without hardware confirmation",
		},
	)
)

// RegisterMetrics registers the ride counters with the provided registry.
func RegisterMetrics(reg *prometheus.Registry) {
	reg.MustRegister(unlockAttemptsTotal, endConfirmTimeoutsTotal)
}
