package tournament

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/wallet"
	"github.com/shopspring/decimal"
)

const selectColumns = `
	SELECT id, name, description, organizer_id, start_date, start_time, timezone, duration_ms,
		status, manual_status_override, five_minute_reminder_sent,
		prize_type, prizes_json, total_pool, entry_fee, funding_source,
		results_json, special_awards_json,
		prizes_distributed, prize_distribution_date, prizes_distributed_by,
		created_at, updated_at
	FROM tournaments`

// New creates a new tournament Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// Create inserts the tournament. For balance funded tournaments the pool is
// debited from the organizer and recorded in the same transaction.
func (s *store) Create(ctx context.Context, t *Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prizesJSON, err := json.Marshal(t.Prizes)
	if err != nil {
		return fmt.Errorf("failed to encode prizes: %w", err)
	}

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if t.FundingSource == FundingBalance && t.TotalPool.IsPositive() {
			if _, err := wallet.Debit(ctx, tx, t.OrganizerID, t.TotalPool); err != nil {
				return err
			}
			_, err := wallet.Record(ctx, tx, wallet.Transaction{
				UserID:       t.OrganizerID,
				TournamentID: t.ID,
				Type:         wallet.TypeFunding,
				Amount:       t.TotalPool,
				Reference:    "funding-" + t.ID,
				Details:      fmt.Sprintf("Prize pool for %s", t.Name),
			})
			if err != nil {
				return err
			}
		} else if _, err := wallet.BalanceOf(ctx, tx, t.OrganizerID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO tournaments (id, name, description, organizer_id, start_date, start_time, timezone, duration_ms,
				status, manual_status_override, five_minute_reminder_sent,
				prize_type, prizes_json, total_pool, entry_fee, funding_source,
				prizes_distributed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`, t.ID, t.Name, t.Description, t.OrganizerID, t.StartDate, t.StartTime, t.Timezone, t.DurationMillis,
			t.Status, t.ManualStatusOverride, t.FiveMinuteReminderSent,
			t.PrizeType, string(prizesJSON), t.TotalPool.String(), t.EntryFee.String(), t.FundingSource,
			t.CreatedAt.UnixMilli(), t.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert tournament %s: %w", t.ID, err)
		}
		return nil
	})
}

func (s *store) Get(ctx context.Context, id string) (*Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GetWith(ctx, s.db, id)
}

// ListForStatusSweep returns tournaments whose status may still change on its own.
func (s *store) ListForStatusSweep(ctx context.Context) ([]*Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(ctx, selectColumns+`
		WHERE status IN (?, ?) AND manual_status_override = 0
		ORDER BY start_date, start_time`, StatusUpcoming, StatusActive)
}

// ListPendingReminders returns upcoming tournaments that were not reminded yet.
func (s *store) ListPendingReminders(ctx context.Context) ([]*Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(ctx, selectColumns+`
		WHERE status = ? AND five_minute_reminder_sent = 0
		ORDER BY start_date, start_time`, StatusUpcoming)
}

func (s *store) list(ctx context.Context, query string, args ...any) ([]*Tournament, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	var tournaments []*Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			log.Error("Failed to scan tournament row", "error", err)
			continue
		}
		tournaments = append(tournaments, t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, t := range tournaments {
		if t.Participants, err = participants(ctx, s.db, t.ID); err != nil {
			return nil, err
		}
	}
	return tournaments, nil
}

func (s *store) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UpdateStatusWith(ctx, s.db, id, from, to)
}

// SetManualStatus writes an organizer chosen status. With manual set the
// status engine leaves the tournament alone until the flag is cleared. The
// status never moves backwards and cancelled tournaments are not touched.
func (s *store) SetManualStatus(ctx context.Context, id string, status Status, manual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := status.reachedFrom()
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{status, manual, time.Now().UTC().UnixMilli(), id}
	for _, st := range from {
		args = append(args, st)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tournaments SET status = ?, manual_status_override = ?, updated_at = ?
		WHERE id = ? AND prizes_distributed = 0 AND status IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to set status of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if err := s.whyNotUpdated(ctx, id); err != nil {
		return err
	}
	current, err := GetWith(ctx, s.db, id)
	if err != nil {
		return err
	}
	if current.Status == StatusCancelled {
		return fmt.Errorf("%w: tournament is cancelled", ErrNotCancellable)
	}
	return fmt.Errorf("%w: tournament is %s", ErrStatusRegression, current.Status)
}

// MarkReminderSent claims the reminder of an upcoming tournament. Only the
// caller that gets true may send it.
func (s *store) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tournaments SET five_minute_reminder_sent = 1, updated_at = ?
		WHERE id = ? AND five_minute_reminder_sent = 0 AND status = ?
	`, time.Now().UTC().UnixMilli(), id, StatusUpcoming)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AddParticipant registers userID and debits the entry fee.
func (s *store) AddParticipant(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := GetWith(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.Status != StatusUpcoming {
			return fmt.Errorf("%w: tournament is %s", ErrRegistrationClosed, t.Status)
		}
		if t.HasParticipant(userID) {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, userID)
		}

		if t.EntryFee.IsPositive() {
			if _, err := wallet.Debit(ctx, tx, userID, t.EntryFee); err != nil {
				return err
			}
			_, err := wallet.Record(ctx, tx, wallet.Transaction{
				UserID:       userID,
				TournamentID: id,
				Type:         wallet.TypeEntry,
				Amount:       t.EntryFee,
				Reference:    fmt.Sprintf("entry-%s-%s", id, userID),
				Details:      fmt.Sprintf("Entry fee for %s", t.Name),
			})
			if err != nil {
				return err
			}
		} else if _, err := wallet.BalanceOf(ctx, tx, userID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tournament_participants (tournament_id, user_id, joined_at) VALUES (?, ?, ?)
		`, id, userID, time.Now().UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to register %s for %s: %w", userID, id, err)
		}
		return nil
	})
}

// SaveResults stores the ranking and completes the tournament. Results are
// frozen once prizes are distributed.
func (s *store) SaveResults(ctx context.Context, id string, results []prize.Result, awards prize.Awards) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	awardsJSON, err := json.Marshal(awards)
	if err != nil {
		return fmt.Errorf("failed to encode special awards: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tournaments SET results_json = ?, special_awards_json = ?, status = ?, updated_at = ?
		WHERE id = ? AND prizes_distributed = 0 AND status IN (?, ?)
	`, string(resultsJSON), string(awardsJSON), StatusCompleted, time.Now().UTC().UnixMilli(), id, StatusActive, StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to save results of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if err := s.whyNotUpdated(ctx, id); err != nil {
		return err
	}
	return ErrResultsNotAccepted
}

// Cancel cancels an upcoming or active tournament and refunds the pool and
// entry fees in one transaction.
func (s *store) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := GetWith(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.Metadata.PrizesDistributed || (t.Status != StatusUpcoming && t.Status != StatusActive) {
			return fmt.Errorf("%w: tournament is %s", ErrNotCancellable, t.Status)
		}
		ok, err := casStatus(ctx, tx, id, t.Status, StatusCancelled, false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: status changed concurrently", ErrNotCancellable)
		}

		if t.FundingSource == FundingBalance && t.TotalPool.IsPositive() {
			if err := refund(ctx, tx, t, t.OrganizerID, t.TotalPool, "pool"); err != nil {
				return err
			}
		}
		if t.EntryFee.IsPositive() {
			for _, p := range t.Participants {
				if err := refund(ctx, tx, t, p, t.EntryFee, "entry"); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func refund(ctx context.Context, q database.Querier, t *Tournament, userID string, amount decimal.Decimal, what string) error {
	if _, err := wallet.Credit(ctx, q, userID, amount); err != nil {
		return err
	}
	_, err := wallet.Record(ctx, q, wallet.Transaction{
		UserID:       userID,
		TournamentID: t.ID,
		Type:         wallet.TypeRefund,
		Amount:       amount,
		Reference:    fmt.Sprintf("refund-%s-%s-%s", t.ID, userID, what),
		Details:      fmt.Sprintf("Refund (%s) for cancelled %s", what, t.Name),
	})
	return err
}

// whyNotUpdated maps a guarded update that touched no row to an error.
func (s *store) whyNotUpdated(ctx context.Context, id string) error {
	t, err := GetWith(ctx, s.db, id)
	if err != nil {
		return err
	}
	if t.Metadata.PrizesDistributed {
		return ErrAlreadyDistributed
	}
	return nil
}

// GetWith loads a tournament through q, so it can be read inside a unit of work.
func GetWith(ctx context.Context, q database.Querier, id string) (*Tournament, error) {
	t, err := scanTournament(q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	if t.Participants, err = participants(ctx, q, id); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateStatusWith moves the tournament from one status to another unless it
// changed in between or is manually overridden.
func UpdateStatusWith(ctx context.Context, q database.Querier, id string, from, to Status) (bool, error) {
	return casStatus(ctx, q, id, from, to, true)
}

func casStatus(ctx context.Context, q database.Querier, id string, from, to Status, respectOverride bool) (bool, error) {
	query := `UPDATE tournaments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	if respectOverride {
		query += ` AND manual_status_override = 0`
	}
	res, err := q.ExecContext(ctx, query, to, time.Now().UTC().UnixMilli(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update status of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkDistributedWith sets the distributed flag. It returns false when the
// flag was already set.
func MarkDistributedWith(ctx context.Context, q database.Querier, id, actorID string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE tournaments
		SET prizes_distributed = 1, prize_distribution_date = ?, prizes_distributed_by = ?, updated_at = ?
		WHERE id = ? AND prizes_distributed = 0
	`, at.UnixMilli(), actorID, at.UnixMilli(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s distributed: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func participants(ctx context.Context, q database.Querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id FROM tournament_participants WHERE tournament_id = ? ORDER BY joined_at, rowid
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants of %s: %w", id, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		ids = append(ids, userID)
	}
	return ids, rows.Err()
}

// scanTournament is a helper function to scan a single tournament row.
func scanTournament(scanner interface{ Scan(...any) error }) (*Tournament, error) {
	var (
		t                               Tournament
		prizesJSON, pool, fee           string
		resultsJSON, awardsJSON, distBy sql.NullString
		distDate                        sql.NullInt64
		createdAt, updatedAt            int64
		override, reminded, distributed bool
	)
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.OrganizerID, &t.StartDate, &t.StartTime, &t.Timezone, &t.DurationMillis,
		&t.Status, &override, &reminded,
		&t.PrizeType, &prizesJSON, &pool, &fee, &t.FundingSource,
		&resultsJSON, &awardsJSON,
		&distributed, &distDate, &distBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ManualStatusOverride = override
	t.FiveMinuteReminderSent = reminded
	if err := json.Unmarshal([]byte(prizesJSON), &t.Prizes); err != nil {
		return nil, fmt.Errorf("corrupt prizes of %s: %w", t.ID, err)
	}
	if t.TotalPool, err = decimal.NewFromString(pool); err != nil {
		return nil, fmt.Errorf("corrupt pool of %s: %w", t.ID, err)
	}
	if t.EntryFee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("corrupt entry fee of %s: %w", t.ID, err)
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &t.Results); err != nil {
			return nil, fmt.Errorf("corrupt results of %s: %w", t.ID, err)
		}
	}
	if awardsJSON.Valid && awardsJSON.String != "" {
		if err := json.Unmarshal([]byte(awardsJSON.String), &t.SpecialAwards); err != nil {
			return nil, fmt.Errorf("corrupt special awards of %s: %w", t.ID, err)
		}
	}

	t.Metadata.PrizesDistributed = distributed
	t.Metadata.PrizesDistributedBy = distBy.String
	if distDate.Valid {
		at := time.UnixMilli(distDate.Int64).UTC()
		t.Metadata.PrizeDistributionDate = &at
	}
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &t, nil
}
