package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ReconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prizeplay_reconcile_runs_total",
			Help: "The total number of reconciliation sweeps, by job.",
		}, []string{"job"}),
		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prizeplay_reconcile_duration_seconds",
			Help:    "The duration of reconciliation sweeps, by job.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"job"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prizeplay_status_transitions_total",
			Help: "The total number of persisted tournament status changes, by target status.",
		}, []string{"status"}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prizeplay_reminders_sent_total",
			Help: "The total number of start reminders claimed and dispatched.",
		}),
		Distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prizeplay_distributions_total",
			Help: "The total number of prize distribution attempts, by outcome.",
		}, []string{"outcome"}),
		PayoutAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prizeplay_payout_amount_total",
			Help: "The total amount credited to winners.",
		}),
		NotifSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prizeplay_notifications_sent_total",
			Help: "The total number of notifications successfully delivered, by channel.",
		}, []string{"channel"}),
		NotifFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prizeplay_notifications_failed_total",
			Help: "The total number of notifications that failed to deliver, by channel.",
		}, []string{"channel"}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prizeplay_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ReconcileRuns,
		s.ReconcileDuration,
		s.StatusTransitions,
		s.RemindersSent,
		s.Distributions,
		s.PayoutAmount,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncReconcileRuns(job string) {
	s.ReconcileRuns.WithLabelValues(job).Inc()
}

func (s *Service) ObserveReconcileDuration(job string, duration float64) {
	s.ReconcileDuration.WithLabelValues(job).Observe(duration)
}

func (s *Service) IncStatusTransitions(to string) {
	s.StatusTransitions.WithLabelValues(to).Inc()
}

func (s *Service) IncRemindersSent() {
	s.RemindersSent.Inc()
}

func (s *Service) IncDistributions(outcome string) {
	s.Distributions.WithLabelValues(outcome).Inc()
}

// AddPayoutAmount ignores negative amounts; Prometheus counters only go up.
func (s *Service) AddPayoutAmount(amount float64) {
	if amount > 0 {
		s.PayoutAmount.Add(amount)
	}
}

func (s *Service) IncNotifSent(channel string) {
	s.NotifSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotifFailed(channel string) {
	s.NotifFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
