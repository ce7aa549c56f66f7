package tournament

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/prizeplay/internal/clock"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/prize"
)

// Service holds the tournament use cases. Reads refresh the status lazily so a
// tournament never looks stale between reconciliation sweeps.
type Service struct {
	store   Store
	metrics metrics.Metrics
	now     func() time.Time
}

// NewService creates a Service on the wall clock.
func NewService(store Store, m metrics.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates the parameters, reserves the prize pool and stores the tournament.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Tournament, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTournament)
	}
	if p.OrganizerID == "" {
		return nil, fmt.Errorf("%w: organizer is required", ErrInvalidTournament)
	}
	if strings.TrimSpace(p.Timezone) == "" {
		p.Timezone = "UTC"
	}
	if _, err := clock.Resolve(p.StartDate, p.StartTime, p.Timezone); err != nil {
		return nil, err
	}
	if p.DurationMillis < MinDurationMillis {
		return nil, fmt.Errorf("%w: got %dms", ErrDurationTooShort, p.DurationMillis)
	}

	schedule, err := prize.Normalize(p.PrizeType, p.Prizes)
	if err != nil {
		return nil, err
	}
	pool := schedule.TotalPool()
	if p.EntryFee.IsNegative() {
		return nil, fmt.Errorf("%w: entry fee must not be negative", ErrInvalidTournament)
	}
	if p.EntryFee.GreaterThan(pool) {
		return nil, fmt.Errorf("%w: entry fee %s, pool %s", ErrEntryFeeExceedsPool, p.EntryFee, pool)
	}

	switch p.FundingSource {
	case "":
		p.FundingSource = FundingBalance
	case FundingBalance, FundingSponsor:
	default:
		return nil, fmt.Errorf("%w: unknown funding source %q", ErrInvalidTournament, p.FundingSource)
	}

	now := s.now().UTC()
	t := &Tournament{
		ID:             uuid.New().String(),
		Name:           p.Name,
		Description:    p.Description,
		OrganizerID:    p.OrganizerID,
		StartDate:      p.StartDate,
		StartTime:      p.StartTime,
		Timezone:       p.Timezone,
		DurationMillis: p.DurationMillis,
		Status:         StatusUpcoming,
		PrizeType:      schedule.Type,
		Prizes:         schedule,
		TotalPool:      pool,
		EntryFee:       p.EntryFee,
		FundingSource:  p.FundingSource,
		Participants:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	log.Info("Tournament created", "tournamentID", t.ID, "organizerID", t.OrganizerID, "prizeType", t.PrizeType, "pool", pool)

	s.refresh(ctx, t)
	return t, nil
}

// Get returns the tournament with its status brought up to date.
func (s *Service) Get(ctx context.Context, id string) (*Tournament, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, t)
	return t, nil
}

// Register adds userID to the roster, charging the entry fee.
func (s *Service) Register(ctx context.Context, id, userID string) (*Tournament, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidTournament)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.AddParticipant(ctx, id, userID); err != nil {
		return nil, err
	}
	log.Info("Participant registered", "tournamentID", id, "userID", userID)
	return s.Get(ctx, id)
}

// SubmitResults stores the organizer's ranking, completes the tournament and
// returns the payouts it would produce.
func (s *Service) SubmitResults(ctx context.Context, id, actorID string, results []prize.Result, awards prize.Awards) ([]prize.PayoutLine, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != actorID {
		return nil, ErrNotOrganizer
	}
	if t.Metadata.PrizesDistributed {
		return nil, ErrAlreadyDistributed
	}
	if t.Status != StatusActive && t.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: tournament is %s", ErrResultsNotAccepted, t.Status)
	}
	if err := validateResults(t, results); err != nil {
		return nil, err
	}

	if err := s.store.SaveResults(ctx, id, results, awards); err != nil {
		return nil, err
	}
	if t.Status != StatusCompleted {
		s.metrics.IncStatusTransitions(string(StatusCompleted))
	}
	log.Info("Results submitted", "tournamentID", id, "results", len(results), "specialAwards", len(awards))
	return prize.ComputePayouts(t.Prizes, results, awards), nil
}

// validateResults requires positions 1..n, each held by exactly one registered
// participant, so rank prizes line up with positions.
func validateResults(t *Tournament, results []prize.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("%w: at least one result is required", ErrInvalidResults)
	}
	seen := make(map[string]bool, len(results))
	taken := make(map[int]bool, len(results))
	for _, r := range results {
		if r.Position < 1 {
			return fmt.Errorf("%w: position of %s must be at least 1", ErrInvalidResults, r.ParticipantID)
		}
		if r.Position > len(results) {
			return fmt.Errorf("%w: position %d leaves a gap in %d results", ErrInvalidResults, r.Position, len(results))
		}
		if taken[r.Position] {
			return fmt.Errorf("%w: position %d is shared", ErrInvalidResults, r.Position)
		}
		taken[r.Position] = true
		if !t.HasParticipant(r.ParticipantID) {
			return fmt.Errorf("%w: %s is not registered", ErrInvalidResults, r.ParticipantID)
		}
		if seen[r.ParticipantID] {
			return fmt.Errorf("%w: %s is ranked twice", ErrInvalidResults, r.ParticipantID)
		}
		seen[r.ParticipantID] = true
	}
	return nil
}

// Preview computes the payouts of the stored results without applying them.
func (s *Service) Preview(ctx context.Context, id string) (*Tournament, []prize.PayoutLine, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(t.Results) == 0 {
		return t, nil, ErrNoResults
	}
	return t, t.Payouts(), nil
}

// Cancel cancels the tournament and refunds pool and entry fees.
func (s *Service) Cancel(ctx context.Context, id, actorID string) (*Tournament, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != actorID {
		return nil, ErrNotOrganizer
	}
	if err := s.store.Cancel(ctx, id); err != nil {
		return nil, err
	}
	s.metrics.IncStatusTransitions(string(StatusCancelled))
	log.Info("Tournament cancelled", "tournamentID", id, "refundedParticipants", len(t.Participants))
	return s.Get(ctx, id)
}

// SetStatus lets the organizer force a status forward. With manual the status
// engine stops managing the tournament; without it the engine resumes from there.
func (s *Service) SetStatus(ctx context.Context, id, actorID string, status Status, manual bool) (*Tournament, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if status == StatusCancelled {
		return s.Cancel(ctx, id, actorID)
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != actorID {
		return nil, ErrNotOrganizer
	}
	if t.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: tournament is cancelled", ErrNotCancellable)
	}
	if status.Before(t.Status) {
		return nil, fmt.Errorf("%w: tournament is %s, cannot go back to %s", ErrStatusRegression, t.Status, status)
	}
	if err := s.store.SetManualStatus(ctx, id, status, manual); err != nil {
		return nil, err
	}
	log.Info("Tournament status set manually", "tournamentID", id, "from", t.Status, "to", status, "override", manual)
	return s.Get(ctx, id)
}

// Payouts computes the payout lines of the stored results.
func (t *Tournament) Payouts() []prize.PayoutLine {
	return prize.ComputePayouts(t.Prizes, t.Results, t.SpecialAwards)
}

// refresh writes back a due status transition. Failures are logged; the read
// still succeeds with the persisted status.
func (s *Service) refresh(ctx context.Context, t *Tournament) {
	snap, err := t.Snapshot()
	if err != nil {
		log.Warn("Cannot derive tournament status", "tournamentID", t.ID, "error", err)
		return
	}
	next, changed := ComputeStatus(snap, s.now())
	if !changed {
		return
	}

	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, next)
	if err != nil {
		log.Error("Failed to write back tournament status", "tournamentID", t.ID, "to", next, "error", err)
		return
	}
	if !ok {
		log.Debug("Tournament status changed concurrently, reloading", "tournamentID", t.ID)
		if fresh, err := s.store.Get(ctx, t.ID); err == nil {
			*t = *fresh
		}
		return
	}
	log.Info("Tournament status updated", "tournamentID", t.ID, "from", t.Status, "to", next)
	s.metrics.IncStatusTransitions(string(next))
	t.Status = next
}
