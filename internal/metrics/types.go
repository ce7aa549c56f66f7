package metrics

import "github.com/prometheus/client_golang/prometheus"

// Distribution outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeAlreadyDistributed = "already_distributed"
	OutcomeRejected           = "rejected"
	OutcomeFailed             = "failed"
)

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	ReconcileRuns      *prometheus.CounterVec
	ReconcileDuration  *prometheus.HistogramVec
	StatusTransitions  *prometheus.CounterVec
	RemindersSent      prometheus.Counter
	Distributions      *prometheus.CounterVec
	PayoutAmount       prometheus.Counter
	NotifSent          *prometheus.CounterVec
	NotifFailed        *prometheus.CounterVec
	StartupTimeSeconds prometheus.Gauge
}
