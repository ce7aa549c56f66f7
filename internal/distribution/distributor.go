// Package distribution applies computed payouts to user balances exactly once
// per tournament.
package distribution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/mauv0809/prizeplay/internal/metrics"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/mauv0809/prizeplay/internal/wallet"
	"github.com/shopspring/decimal"
)

var (
	ErrTournamentNotCompleted = fmt.Errorf("%w: tournament is not completed", errs.ErrPolicyViolation)
	ErrParticipantNotOnRoster = fmt.Errorf("%w: participant is not on the roster", errs.ErrPolicyViolation)
	ErrNoPayouts              = fmt.Errorf("%w: nothing to distribute", errs.ErrValidation)
	ErrInvalidPayout          = fmt.Errorf("%w: payout amounts must be positive", errs.ErrValidation)
)

// Payout is one applied payout line.
type Payout struct {
	prize.PayoutLine
	TransactionID string          `json:"transactionId"`
	Reference     string          `json:"reference"`
	Balance       decimal.Decimal `json:"balance"`
}

// Receipt describes a completed distribution.
type Receipt struct {
	TournamentID  string          `json:"tournamentId"`
	DistributedBy string          `json:"distributedBy"`
	DistributedAt time.Time       `json:"distributedAt"`
	Total         decimal.Decimal `json:"total"`
	Payouts       []Payout        `json:"payouts"`
}

// Distributor applies payouts. All checks and writes of one call share a
// single database transaction; nothing is locked in process.
type Distributor struct {
	db       *sql.DB
	notifier notifier.Notifier
	metrics  metrics.Metrics
	now      func() time.Time
}

// New creates a Distributor on the wall clock.
func New(db *sql.DB, n notifier.Notifier, m metrics.Metrics) *Distributor {
	return &Distributor{
		db:       db,
		notifier: n,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (d *Distributor) WithClock(now func() time.Time) *Distributor {
	d.now = now
	return d
}

// Distribute credits every line to its participant, records a prize ledger
// entry per line and marks the tournament distributed. Either all of it
// happens or none of it. Winners are notified after commit; notification
// failures are logged and never returned.
func (d *Distributor) Distribute(ctx context.Context, tournamentID string, lines []prize.PayoutLine, actorID string) (*Receipt, error) {
	var (
		receipt  *Receipt
		t        *tournament.Tournament
		advanced tournament.Status
	)
	err := database.WithTx(ctx, d.db, func(tx *sql.Tx) error {
		var err error
		t, err = tournament.GetWith(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if t.OrganizerID != actorID {
			return tournament.ErrNotOrganizer
		}

		from := t.Status
		advanced = ""
		status, err := d.effectiveStatus(ctx, tx, t)
		if err != nil {
			return err
		}
		if status != from {
			advanced = status
		}
		if status != tournament.StatusCompleted {
			return fmt.Errorf("%w: tournament is %s", ErrTournamentNotCompleted, status)
		}

		if t.Metadata.PrizesDistributed {
			return tournament.ErrAlreadyDistributed
		}
		paid, err := wallet.HasCompletedPayouts(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if paid {
			return fmt.Errorf("%w: prize transactions already exist", tournament.ErrAlreadyDistributed)
		}

		if err := validateLines(t, lines); err != nil {
			return err
		}

		now := d.now().UTC()
		receipt = &Receipt{
			TournamentID:  tournamentID,
			DistributedBy: actorID,
			DistributedAt: now,
			Total:         prize.Sum(lines),
			Payouts:       make([]Payout, 0, len(lines)),
		}
		for i, line := range lines {
			balance, err := wallet.Credit(ctx, tx, line.ParticipantID, line.Amount)
			if err != nil {
				return err
			}
			txn, err := wallet.Record(ctx, tx, wallet.Transaction{
				UserID:       line.ParticipantID,
				TournamentID: tournamentID,
				Type:         wallet.TypePrize,
				Amount:       line.Amount,
				Reference:    fmt.Sprintf("prize-%s-%s-%d-%d", tournamentID, line.ParticipantID, now.UnixNano(), i),
				Status:       wallet.StatusCompleted,
				Details:      line.Reason,
				CreatedAt:    now,
			})
			if err != nil {
				return err
			}
			receipt.Payouts = append(receipt.Payouts, Payout{
				PayoutLine:    line,
				TransactionID: txn.ID,
				Reference:     txn.Reference,
				Balance:       balance,
			})
		}

		marked, err := tournament.MarkDistributedWith(ctx, tx, tournamentID, actorID, now)
		if err != nil {
			return err
		}
		if !marked {
			return tournament.ErrAlreadyDistributed
		}
		return nil
	})
	if err != nil {
		d.metrics.IncDistributions(outcome(err))
		log.Warn("Prize distribution rejected", "tournamentID", tournamentID, "actorID", actorID, "error", err)
		return nil, err
	}

	if advanced != "" {
		log.Info("Tournament status updated", "tournamentID", tournamentID, "to", advanced)
		d.metrics.IncStatusTransitions(string(advanced))
	}
	d.metrics.IncDistributions(metrics.OutcomeSuccess)
	total, _ := receipt.Total.Float64()
	d.metrics.AddPayoutAmount(total)
	log.Info("Prizes distributed", "tournamentID", tournamentID, "actorID", actorID, "payouts", len(receipt.Payouts), "total", receipt.Total)

	d.notifyWinners(ctx, t, lines, false)
	return receipt, nil
}

// DistributeFromResults computes the payouts of the stored results and distributes them.
func (d *Distributor) DistributeFromResults(ctx context.Context, tournamentID, actorID string) (*Receipt, error) {
	t, err := tournament.GetWith(ctx, d.db, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(t.Results) == 0 {
		return nil, tournament.ErrNoResults
	}
	lines := t.Payouts()
	log.Debug("Computed payouts from stored results", "tournamentID", tournamentID, "lines", len(lines), "total", prize.Sum(lines))
	return d.Distribute(ctx, tournamentID, lines, actorID)
}

// DryRun resolves the lines a distribution of t would pay, falling back to its
// stored results, and renders the winner notifications without sending them.
// Nothing is written.
func (d *Distributor) DryRun(ctx context.Context, t *tournament.Tournament, lines []prize.PayoutLine) ([]prize.PayoutLine, error) {
	if len(lines) == 0 {
		if len(t.Results) == 0 {
			return nil, tournament.ErrNoResults
		}
		lines = t.Payouts()
	}
	log.Info("[Dry Run] Would distribute prizes", "tournamentID", t.ID, "payouts", len(lines), "total", prize.Sum(lines))
	d.notifyWinners(ctx, t, lines, true)
	return lines, nil
}

// effectiveStatus applies a due status transition and writes it back in the
// same transaction, so a tournament whose end has passed can be paid out
// before the reconciler notices. The write-back only counts once committed.
func (d *Distributor) effectiveStatus(ctx context.Context, q database.Querier, t *tournament.Tournament) (tournament.Status, error) {
	snap, err := t.Snapshot()
	if err != nil {
		log.Warn("Cannot derive tournament status, using persisted status", "tournamentID", t.ID, "error", err)
		return t.Status, nil
	}
	next, changed := tournament.ComputeStatus(snap, d.now())
	if !changed {
		return t.Status, nil
	}
	ok, err := tournament.UpdateStatusWith(ctx, q, t.ID, t.Status, next)
	if err != nil {
		return "", err
	}
	if ok {
		log.Debug("Advancing tournament status for distribution", "tournamentID", t.ID, "from", t.Status, "to", next)
		t.Status = next
	}
	return t.Status, nil
}

func validateLines(t *tournament.Tournament, lines []prize.PayoutLine) error {
	if len(lines) == 0 {
		return ErrNoPayouts
	}
	for _, line := range lines {
		if !line.Amount.IsPositive() {
			return fmt.Errorf("%w: %s for %s", ErrInvalidPayout, line.Amount, line.ParticipantID)
		}
		if !t.HasParticipant(line.ParticipantID) {
			return fmt.Errorf("%w: %s", ErrParticipantNotOnRoster, line.ParticipantID)
		}
	}
	return nil
}

func (d *Distributor) notifyWinners(ctx context.Context, t *tournament.Tournament, lines []prize.PayoutLine, dryRun bool) {
	if d.notifier == nil {
		return
	}
	for _, line := range lines {
		if err := d.notifier.SendPrizeAwarded(ctx, t, line, dryRun); err != nil {
			log.Error("Failed to notify prize winner", "tournamentID", t.ID, "participantID", line.ParticipantID, "amount", line.Amount, "error", err)
		}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, errs.ErrAlreadyDistributed):
		return metrics.OutcomeAlreadyDistributed
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrPolicyViolation), errors.Is(err, errs.ErrNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
