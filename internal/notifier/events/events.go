// Package events publishes notifications as Pub/Sub events for downstream
// consumers such as mailers or push gateways.
package events

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/pubsub"
	"github.com/mauv0809/prizeplay/internal/tournament"
)

// ReminderDue is published when a tournament is about to start.
type ReminderDue struct {
	TournamentID   string   `msgpack:"tournamentId"`
	Name           string   `msgpack:"name"`
	StartsAt       int64    `msgpack:"startsAt"`
	StartsInMillis int64    `msgpack:"startsInMillis"`
	Participants   []string `msgpack:"participants"`
}

// PrizeAwarded is published for every credited payout line. Amount is a
// decimal string so consumers never see a float.
type PrizeAwarded struct {
	TournamentID  string `msgpack:"tournamentId"`
	Name          string `msgpack:"name"`
	ParticipantID string `msgpack:"participantId"`
	Position      int    `msgpack:"position"`
	Category      string `msgpack:"category,omitempty"`
	Amount        string `msgpack:"amount"`
	Reason        string `msgpack:"reason"`
}

// Notifier turns notifications into Pub/Sub events.
type Notifier struct {
	client pubsub.PubSubClient
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(client pubsub.PubSubClient) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) SendReminder(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error {
	event := ReminderDue{
		TournamentID:   t.ID,
		Name:           t.Name,
		StartsInMillis: startsIn.Milliseconds(),
		Participants:   t.Participants,
	}
	if start, err := t.StartsAt(); err == nil {
		event.StartsAt = start.UnixMilli()
	}
	if dryRun {
		log.Info("[Dry Run] Would publish event", "topic", pubsub.EventTournamentReminder, "tournamentID", t.ID)
		return nil
	}
	return n.client.SendMessage(ctx, pubsub.EventTournamentReminder, event)
}

func (n *Notifier) SendPrizeAwarded(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error {
	event := PrizeAwarded{
		TournamentID:  t.ID,
		Name:          t.Name,
		ParticipantID: line.ParticipantID,
		Position:      line.Position,
		Category:      line.Category,
		Amount:        line.Amount.StringFixed(2),
		Reason:        line.Reason,
	}
	if dryRun {
		log.Info("[Dry Run] Would publish event", "topic", pubsub.EventTournamentPrizeAwarded, "tournamentID", t.ID, "participantID", line.ParticipantID)
		return nil
	}
	return n.client.SendMessage(ctx, pubsub.EventTournamentPrizeAwarded, event)
}
