package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// New creates a new wallet Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// CreateUser inserts a user, or resets name and balance of an existing one.
func (s *store) CreateUser(ctx context.Context, id, name string, balance decimal.Decimal) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidUser)
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("%w: negative opening balance %s", ErrInvalidUser, balance)
	}
	now := time.Now().UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			balance = excluded.balance,
			updated_at = excluded.updated_at
	`, id, name, balance.String(), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", id, err)
	}
	log.Debug("User upserted", "userID", id, "balance", balance)
	return s.getUser(ctx, id)
}

func (s *store) GetUser(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUser(ctx, id)
}

func (s *store) getUser(ctx context.Context, id string) (*User, error) {
	var (
		u                    User
		balance              string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, balance, created_at, updated_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &balance, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	if u.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("corrupt balance %q for user %s: %w", balance, id, err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	u.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &u, nil
}

func (s *store) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BalanceOf(ctx, s.db, id)
}

// Transactions returns the user's most recent ledger entries, newest first.
func (s *store) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tournament_id, type, amount, reference, status, details, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TournamentTransactions returns every ledger entry of a tournament in insertion order.
func (s *store) TournamentTransactions(ctx context.Context, tournamentID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tournament_id, type, amount, reference, status, details, created_at
		FROM transactions
		WHERE tournament_id = ?
		ORDER BY rowid
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	txns := []Transaction{}
	for rows.Next() {
		var (
			t            Transaction
			tournamentID sql.NullString
			amount       string
			createdAt    int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &tournamentID, &t.Type, &amount, &t.Reference, &t.Status, &t.Details, &createdAt); err != nil {
			log.Error("Failed to scan transaction row", "error", err)
			continue
		}
		t.TournamentID = tournamentID.String
		t.Amount, _ = decimal.NewFromString(amount)
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
