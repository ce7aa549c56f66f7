package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncReconcileRuns(job string)
	ObserveReconcileDuration(job string, duration float64)
	IncStatusTransitions(to string)
	IncRemindersSent()
	IncDistributions(outcome string)
	AddPayoutAmount(amount float64)
	IncNotifSent(channel string)
	IncNotifFailed(channel string)
	SetStartupTime(duration float64)
}
