package reconciler

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/notifier"
)

// Job names, also used as metric labels and by the reconcile endpoint.
const (
	JobStatus    = "status"
	JobReminders = "reminders"
)

// Reconciler periodically brings persisted tournament state in line with the clock.
type Reconciler struct {
	store     Store
	notifier  notifier.Notifier
	metrics   metrics.Metrics
	lead      time.Duration
	now       func() time.Time
	scheduler gocron.Scheduler
}

// Report summarises one sweep.
type Report struct {
	Job     string `json:"job"`
	DryRun  bool   `json:"dryRun"`
	Checked int    `json:"checked"`
	Changed int    `json:"changed"`
	Failed  int    `json:"failed"`
}
