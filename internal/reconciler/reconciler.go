package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/tournament"
)

// New creates a new Reconciler. lead is how long before the start a reminder is due.
func New(store Store, notifier notifier.Notifier, metrics metrics.Metrics, lead time.Duration) *Reconciler {
	if lead <= 0 {
		lead = tournament.DefaultReminderLead
	}
	return &Reconciler{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		lead:     lead,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// ReconcileStatuses writes back every due status transition. A failure on one
// tournament is logged and the sweep continues.
func (r *Reconciler) ReconcileStatuses(ctx context.Context, dryRun bool) Report {
	report := Report{Job: JobStatus, DryRun: dryRun}
	start := time.Now()
	defer r.finish(&report, start)

	log.Debug("Starting status reconciliation...")
	tournaments, err := r.store.ListForStatusSweep(ctx)
	if err != nil {
		log.Error("Failed to get tournaments for status reconciliation", "error", err)
		report.Failed++
		return report
	}

	now := r.now()
	for _, t := range tournaments {
		report.Checked++
		snap, err := t.Snapshot()
		if err != nil {
			log.Error("Cannot derive tournament status", "tournamentID", t.ID, "error", err)
			report.Failed++
			continue
		}
		next, changed := tournament.ComputeStatus(snap, now)
		if !changed {
			continue
		}
		if dryRun {
			log.Info("[Dry Run] Would update tournament status", "tournamentID", t.ID, "from", t.Status, "to", next)
			report.Changed++
			continue
		}

		ok, err := r.store.UpdateStatus(ctx, t.ID, t.Status, next)
		if err != nil {
			log.Error("Failed to update tournament status", "tournamentID", t.ID, "from", t.Status, "to", next, "error", err)
			report.Failed++
			continue
		}
		if !ok {
			log.Debug("Tournament status changed concurrently, skipping", "tournamentID", t.ID)
			continue
		}
		log.Info("Tournament status updated", "tournamentID", t.ID, "from", t.Status, "to", next)
		r.metrics.IncStatusTransitions(string(next))
		report.Changed++
	}
	return report
}

// ReconcileReminders sends the start reminder of every tournament entering
// the lead window. The reminder is claimed before it is sent, so it goes out
// at most once even when sweeps overlap or the process restarts.
func (r *Reconciler) ReconcileReminders(ctx context.Context, dryRun bool) Report {
	report := Report{Job: JobReminders, DryRun: dryRun}
	start := time.Now()
	defer r.finish(&report, start)

	log.Debug("Starting reminder reconciliation...")
	tournaments, err := r.store.ListPendingReminders(ctx)
	if err != nil {
		log.Error("Failed to get tournaments for reminders", "error", err)
		report.Failed++
		return report
	}

	now := r.now()
	for _, t := range tournaments {
		report.Checked++
		snap, err := t.Snapshot()
		if err != nil {
			log.Error("Cannot resolve tournament start", "tournamentID", t.ID, "error", err)
			report.Failed++
			continue
		}
		if !tournament.IsStartingWithin(snap, now, r.lead) {
			continue
		}
		startsIn := snap.Start.Sub(now)
		if dryRun {
			log.Info("[Dry Run] Would send start reminder", "tournamentID", t.ID, "startsIn", startsIn)
			if err := r.notifier.SendReminder(ctx, t, startsIn, true); err != nil {
				log.Error("Failed to render start reminder", "tournamentID", t.ID, "error", err)
			}
			report.Changed++
			continue
		}

		claimed, err := r.store.MarkReminderSent(ctx, t.ID)
		if err != nil {
			log.Error("Failed to claim reminder", "tournamentID", t.ID, "error", err)
			report.Failed++
			continue
		}
		if !claimed {
			log.Debug("Reminder already claimed, skipping", "tournamentID", t.ID)
			continue
		}
		t.FiveMinuteReminderSent = true
		r.metrics.IncRemindersSent()
		report.Changed++

		if err := r.notifier.SendReminder(ctx, t, startsIn, false); err != nil {
			log.Error("Failed to deliver start reminder", "tournamentID", t.ID, "error", err)
			continue
		}
		log.Info("Start reminder sent", "tournamentID", t.ID, "startsIn", startsIn, "participants", len(t.Participants))
	}
	return report
}

// Run executes the named job, or both for "all".
func (r *Reconciler) Run(ctx context.Context, job string, dryRun bool) ([]Report, error) {
	switch job {
	case JobStatus:
		return []Report{r.ReconcileStatuses(ctx, dryRun)}, nil
	case JobReminders:
		return []Report{r.ReconcileReminders(ctx, dryRun)}, nil
	case "", "all":
		return []Report{r.ReconcileStatuses(ctx, dryRun), r.ReconcileReminders(ctx, dryRun)}, nil
	default:
		return nil, fmt.Errorf("unknown reconcile job %q", job)
	}
}

func (r *Reconciler) finish(report *Report, start time.Time) {
	r.metrics.IncReconcileRuns(report.Job)
	r.metrics.ObserveReconcileDuration(report.Job, time.Since(start).Seconds())
	if report.Changed > 0 || report.Failed > 0 {
		log.Info("Reconciliation finished", "job", report.Job, "checked", report.Checked, "changed", report.Changed, "failed", report.Failed, "dryRun", report.DryRun)
	}
}
