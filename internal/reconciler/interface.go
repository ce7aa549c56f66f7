package reconciler

import (
	"context"

	"github.com/mauv0809/prizeplay/internal/tournament"
)

// Store defines the database operations required by the reconciler.
type Store interface {
	ListForStatusSweep(ctx context.Context) ([]*tournament.Tournament, error)
	ListPendingReminders(ctx context.Context) ([]*tournament.Tournament, error)
	UpdateStatus(ctx context.Context, id string, from, to tournament.Status) (bool, error)
	MarkReminderSent(ctx context.Context, id string) (bool, error)
}
