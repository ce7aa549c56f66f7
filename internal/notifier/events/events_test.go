package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/pubsub"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTournament() *tournament.Tournament {
	return &tournament.Tournament{
		ID:           "t1",
		Name:         "Friday Cup",
		StartDate:    "2025-06-01",
		StartTime:    "18:00",
		Timezone:     "Europe/Copenhagen",
		Participants: []string{"u1", "u2"},
	}
}

func TestNotifier_SendReminder(t *testing.T) {
	client := pubsub.NewMock("test")
	n := New(client)

	require.NoError(t, n.SendReminder(context.Background(), testTournament(), 5*time.Minute, false))

	require.Len(t, client.SendMessageCalls, 1)
	call := client.SendMessageCalls[0]
	assert.Equal(t, pubsub.EventTournamentReminder, call.Topic)

	var got ReminderDue
	require.NoError(t, pubsub.Decode(call.Payload, &got))
	assert.Equal(t, "t1", got.TournamentID)
	assert.Equal(t, int64(300000), got.StartsInMillis)
	assert.Equal(t, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC).UnixMilli(), got.StartsAt)
	assert.Equal(t, []string{"u1", "u2"}, got.Participants)
}

func TestNotifier_SendPrizeAwarded(t *testing.T) {
	client := pubsub.NewMock("test")
	n := New(client)
	line := prize.PayoutLine{ParticipantID: "u1", Position: 1, Amount: decimal.RequireFromString("333.3"), Reason: "1st place"}

	require.NoError(t, n.SendPrizeAwarded(context.Background(), testTournament(), line, false))

	require.Len(t, client.SendMessageCalls, 1)
	assert.Equal(t, pubsub.EventTournamentPrizeAwarded, client.SendMessageCalls[0].Topic)
	var got PrizeAwarded
	require.NoError(t, pubsub.Decode(client.SendMessageCalls[0].Payload, &got))
	assert.Equal(t, "333.30", got.Amount)
	assert.Equal(t, "u1", got.ParticipantID)
	assert.Equal(t, "1st place", got.Reason)
}

func TestNotifier_DryRunPublishesNothing(t *testing.T) {
	client := pubsub.NewMock("test")
	n := New(client)

	require.NoError(t, n.SendReminder(context.Background(), testTournament(), time.Minute, true))
	require.NoError(t, n.SendPrizeAwarded(context.Background(), testTournament(), prize.PayoutLine{Amount: decimal.NewFromInt(1)}, true))
	assert.Empty(t, client.SendMessageCalls)
}

func TestNotifier_PublishError(t *testing.T) {
	client := pubsub.NewMock("test")
	client.SendMessageFunc = func(topic pubsub.EventType, data any) error {
		return errors.New("topic not found")
	}
	n := New(client)

	err := n.SendReminder(context.Background(), testTournament(), time.Minute, false)
	assert.EqualError(t, err, "topic not found")
}
