package tournament

import (
	"context"

	"github.com/mauv0809/prizeplay/internal/prize"
)

// Store persists tournaments. Status, reminder and distribution writes are
// compare-and-set: a false result means another writer got there first.
type Store interface {
	Create(ctx context.Context, t *Tournament) error
	Get(ctx context.Context, id string) (*Tournament, error)
	ListForStatusSweep(ctx context.Context) ([]*Tournament, error)
	ListPendingReminders(ctx context.Context) ([]*Tournament, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	SetManualStatus(ctx context.Context, id string, status Status, manual bool) error
	MarkReminderSent(ctx context.Context, id string) (bool, error)
	AddParticipant(ctx context.Context, id, userID string) error
	SaveResults(ctx context.Context, id string, results []prize.Result, awards prize.Awards) error
	Cancel(ctx context.Context, id string) error
}
