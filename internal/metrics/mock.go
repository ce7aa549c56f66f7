package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	reconcileRuns      map[string]int
	reconcileDurations []float64
	statusTransitions  map[string]int
	remindersSent      int
	distributions      map[string]int
	payoutAmount       float64
	notifSent          map[string]int
	notifFailed        map[string]int
	startupTime        float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		reconcileRuns:      make(map[string]int),
		reconcileDurations: make([]float64, 0),
		statusTransitions:  make(map[string]int),
		distributions:      make(map[string]int),
		notifSent:          make(map[string]int),
		notifFailed:        make(map[string]int),
	}
}

func (m *Mock) IncReconcileRuns(job string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileRuns[job]++
}

func (m *Mock) ObserveReconcileDuration(job string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileDurations = append(m.reconcileDurations, duration)
}

func (m *Mock) IncStatusTransitions(to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusTransitions[to]++
}

func (m *Mock) IncRemindersSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remindersSent++
}

func (m *Mock) IncDistributions(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distributions[outcome]++
}

func (m *Mock) AddPayoutAmount(amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payoutAmount += amount
}

func (m *Mock) IncNotifSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent[channel]++
}

func (m *Mock) IncNotifFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed[channel]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ReconcileRuns returns the number of times IncReconcileRuns was called for job.
func (m *Mock) ReconcileRuns(job string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcileRuns[job]
}

// StatusTransitions returns the number of recorded transitions into status.
func (m *Mock) StatusTransitions(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusTransitions[status]
}

func (m *Mock) RemindersSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remindersSent
}

func (m *Mock) Distributions(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.distributions[outcome]
}

func (m *Mock) PayoutAmount() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payoutAmount
}

func (m *Mock) NotifSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent[channel]
}

func (m *Mock) NotifFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed[channel]
}
