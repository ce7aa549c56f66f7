package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendReminderFunc     func(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error
	SendPrizeAwardedFunc func(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error

	// Call records
	SendReminderCalls []struct {
		Tournament *tournament.Tournament
		StartsIn   time.Duration
		DryRun     bool
	}
	SendPrizeAwardedCalls []struct {
		Tournament *tournament.Tournament
		Line       prize.PayoutLine
		DryRun     bool
	}
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendReminderCalls = nil
	m.SendPrizeAwardedCalls = nil
}

func (m *Mock) SendReminder(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendReminderCalls = append(m.SendReminderCalls, struct {
		Tournament *tournament.Tournament
		StartsIn   time.Duration
		DryRun     bool
	}{t, startsIn, dryRun})
	if m.SendReminderFunc != nil {
		return m.SendReminderFunc(ctx, t, startsIn, dryRun)
	}
	return nil
}

func (m *Mock) SendPrizeAwarded(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPrizeAwardedCalls = append(m.SendPrizeAwardedCalls, struct {
		Tournament *tournament.Tournament
		Line       prize.PayoutLine
		DryRun     bool
	}{t, line, dryRun})
	if m.SendPrizeAwardedFunc != nil {
		return m.SendPrizeAwardedFunc(ctx, t, line, dryRun)
	}
	return nil
}

// Reminders returns the number of reminders recorded.
func (m *Mock) Reminders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendReminderCalls)
}

// PrizesAwarded returns the number of prize notifications recorded.
func (m *Mock) PrizesAwarded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendPrizeAwardedCalls)
}
