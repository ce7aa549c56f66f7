package notifier

import (
	"context"
	"time"

	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For tournaments about to start
	SendReminder(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error
	// For each prize credited to a winner
	SendPrizeAwarded(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error
}
