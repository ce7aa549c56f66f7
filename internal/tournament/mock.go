package tournament

import (
	"context"
	"sync"

	"github.com/mauv0809/prizeplay/internal/prize"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateFunc               func(ctx context.Context, t *Tournament) error
	GetFunc                  func(ctx context.Context, id string) (*Tournament, error)
	ListForStatusSweepFunc   func(ctx context.Context) ([]*Tournament, error)
	ListPendingRemindersFunc func(ctx context.Context) ([]*Tournament, error)
	UpdateStatusFunc         func(ctx context.Context, id string, from, to Status) (bool, error)
	SetManualStatusFunc      func(ctx context.Context, id string, status Status, manual bool) error
	MarkReminderSentFunc     func(ctx context.Context, id string) (bool, error)
	AddParticipantFunc       func(ctx context.Context, id, userID string) error
	SaveResultsFunc          func(ctx context.Context, id string, results []prize.Result, awards prize.Awards) error
	CancelFunc               func(ctx context.Context, id string) error

	// Call records
	CreateCalls       []*Tournament
	UpdateStatusCalls []struct {
		ID   string
		From Status
		To   Status
	}
	MarkReminderSentCalls []string
	AddParticipantCalls   []struct {
		ID     string
		UserID string
	}
	CancelCalls []string
}

var _ Store = (*MockStore)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = nil
	m.UpdateStatusCalls = nil
	m.MarkReminderSentCalls = nil
	m.AddParticipantCalls = nil
	m.CancelCalls = nil
}

func (m *MockStore) Create(ctx context.Context, t *Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, t)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrTournamentNotFound
}

func (m *MockStore) ListForStatusSweep(ctx context.Context) ([]*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListForStatusSweepFunc != nil {
		return m.ListForStatusSweepFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) ListPendingReminders(ctx context.Context) ([]*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListPendingRemindersFunc != nil {
		return m.ListPendingRemindersFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, struct {
		ID   string
		From Status
		To   Status
	}{id, from, to})
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to)
	}
	return true, nil
}

func (m *MockStore) SetManualStatus(ctx context.Context, id string, status Status, manual bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetManualStatusFunc != nil {
		return m.SetManualStatusFunc(ctx, id, status, manual)
	}
	return nil
}

func (m *MockStore) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkReminderSentCalls = append(m.MarkReminderSentCalls, id)
	if m.MarkReminderSentFunc != nil {
		return m.MarkReminderSentFunc(ctx, id)
	}
	return true, nil
}

func (m *MockStore) AddParticipant(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddParticipantCalls = append(m.AddParticipantCalls, struct {
		ID     string
		UserID string
	}{id, userID})
	if m.AddParticipantFunc != nil {
		return m.AddParticipantFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockStore) SaveResults(ctx context.Context, id string, results []prize.Result, awards prize.Awards) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveResultsFunc != nil {
		return m.SaveResultsFunc(ctx, id, results, awards)
	}
	return nil
}

func (m *MockStore) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, id)
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id)
	}
	return nil
}
