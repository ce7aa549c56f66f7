package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// Start schedules both sweeps and runs them once right away. A sweep that is
// still running when its next tick fires is rescheduled instead of overlapping.
func (r *Reconciler) Start(ctx context.Context, statusEvery, reminderEvery time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name  string
		every time.Duration
		run   func()
	}{
		{JobStatus, statusEvery, func() { r.ReconcileStatuses(ctx, false) }},
		{JobReminders, reminderEvery, func() { r.ReconcileReminders(ctx, false) }},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(j.every),
			gocron.NewTask(j.run),
			gocron.WithName(j.name),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return fmt.Errorf("failed to schedule %s reconciliation: %w", j.name, err)
		}
		log.Info("Scheduled reconciliation", "job", j.name, "every", j.every)
	}

	sched.Start()
	r.scheduler = sched
	return nil
}

// Stop shuts the scheduler down, waiting for running sweeps.
func (r *Reconciler) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}
