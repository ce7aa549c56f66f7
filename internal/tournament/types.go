package tournament

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mauv0809/prizeplay/internal/clock"
	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/shopspring/decimal"
)

// MinDurationMillis is the shortest tournament that may be scheduled.
const MinDurationMillis int64 = 5 * 60 * 1000

var (
	ErrTournamentNotFound  = fmt.Errorf("%w: tournament", errs.ErrNotFound)
	ErrInvalidTournament   = fmt.Errorf("%w: invalid tournament", errs.ErrValidation)
	ErrDurationTooShort    = fmt.Errorf("%w: duration must be at least 5 minutes", errs.ErrValidation)
	ErrEntryFeeExceedsPool = fmt.Errorf("%w: entry fee exceeds prize pool", errs.ErrValidation)
	ErrInvalidStatus       = fmt.Errorf("%w: unknown tournament status", errs.ErrValidation)
	ErrInvalidResults      = fmt.Errorf("%w: invalid results", errs.ErrValidation)
	ErrNotOrganizer        = fmt.Errorf("%w: only the organizer may do this", errs.ErrForbidden)
	ErrRegistrationClosed  = fmt.Errorf("%w: registration is closed", errs.ErrPolicyViolation)
	ErrAlreadyRegistered   = fmt.Errorf("%w: already registered", errs.ErrPolicyViolation)
	ErrNotCancellable      = fmt.Errorf("%w: tournament can no longer be cancelled", errs.ErrPolicyViolation)
	ErrResultsNotAccepted  = fmt.Errorf("%w: results are not accepted in the current status", errs.ErrPolicyViolation)
	ErrNoResults           = fmt.Errorf("%w: no results have been submitted", errs.ErrPolicyViolation)
	ErrAlreadyDistributed  = fmt.Errorf("%w: tournament", errs.ErrAlreadyDistributed)
	ErrStatusRegression    = fmt.Errorf("%w: status can only move forward", errs.ErrPolicyViolation)
)

// Status is the lifecycle state of a tournament.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Terminal reports whether the status can no longer change on its own.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Before reports whether s comes earlier in the lifecycle than other.
// Cancelled is outside the ordering and never comes before anything.
func (s Status) Before(other Status) bool {
	return s != StatusCancelled && other != StatusCancelled && s.rank() < other.rank()
}

// reachedFrom lists the statuses a forward move to s may start from.
func (s Status) reachedFrom() []Status {
	var from []Status
	for _, st := range []Status{StatusUpcoming, StatusActive, StatusCompleted} {
		if st.rank() <= s.rank() {
			from = append(from, st)
		}
	}
	return from
}

func (s Status) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusActive:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 3
	}
}

// FundingSource tells where the prize pool comes from.
type FundingSource string

const (
	// FundingBalance reserves the pool from the organizer's balance at creation.
	FundingBalance FundingSource = "balance"
	// FundingSponsor pools are paid externally; nothing is debited.
	FundingSponsor FundingSource = "sponsor"
)

// Metadata tracks prize distribution.
type Metadata struct {
	PrizesDistributed     bool       `json:"prizesDistributed"`
	PrizeDistributionDate *time.Time `json:"prizeDistributionDate,omitempty"`
	PrizesDistributedBy   string     `json:"prizesDistributedBy,omitempty"`
}

// Tournament is a scheduled competition with a prize pool.
type Tournament struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OrganizerID string `json:"organizerId"`

	StartDate      string `json:"startDate"`
	StartTime      string `json:"startTime"`
	Timezone       string `json:"timezone"`
	DurationMillis int64  `json:"durationMillis"`

	Status                 Status `json:"status"`
	ManualStatusOverride   bool   `json:"manualStatusOverride"`
	FiveMinuteReminderSent bool   `json:"fiveMinuteReminderSent"`

	PrizeType     prize.Type      `json:"prizeType"`
	Prizes        prize.Schedule  `json:"prizes"`
	TotalPool     decimal.Decimal `json:"totalPool"`
	EntryFee      decimal.Decimal `json:"entryFee"`
	FundingSource FundingSource   `json:"fundingSource"`

	Participants  []string       `json:"participants"`
	Results       []prize.Result `json:"results,omitempty"`
	SpecialAwards prize.Awards   `json:"specialAwards,omitempty"`

	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StartsAt resolves the start instant. An unresolvable zone reads as UTC.
func (t *Tournament) StartsAt() (time.Time, error) {
	return clock.ResolveLenient(t.StartDate, t.StartTime, t.Timezone)
}

// Snapshot captures what the status engine and reminder check need.
func (t *Tournament) Snapshot() (Snapshot, error) {
	start, err := t.StartsAt()
	if err != nil {
		return Snapshot{}, fmt.Errorf("tournament %s: %w", t.ID, err)
	}
	return Snapshot{
		Status:         t.Status,
		Start:          start,
		Duration:       time.Duration(t.DurationMillis) * time.Millisecond,
		ManualOverride: t.ManualStatusOverride,
		ReminderSent:   t.FiveMinuteReminderSent,
	}, nil
}

// HasParticipant reports whether userID is on the roster.
func (t *Tournament) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Snapshot is the immutable input of the status engine.
type Snapshot struct {
	Status         Status
	Start          time.Time
	Duration       time.Duration
	ManualOverride bool
	ReminderSent   bool
}

// End is the instant the tournament is over.
func (s Snapshot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// CreateParams is the input for creating a tournament.
type CreateParams struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	OrganizerID    string          `json:"organizerId"`
	StartDate      string          `json:"startDate"`
	StartTime      string          `json:"startTime"`
	Timezone       string          `json:"timezone"`
	DurationMillis int64           `json:"durationMillis"`
	PrizeType      prize.Type      `json:"prizeType"`
	Prizes         json.RawMessage `json:"prizes"`
	EntryFee       decimal.Decimal `json:"entryFee"`
	FundingSource  FundingSource   `json:"fundingSource"`
}

// store handles all database operations for tournaments.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
