package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/prizeplay/internal/database"
	"github.com/shopspring/decimal"
)

// The helpers below do a read-modify-write of users.balance and must run on
// a *sql.Tx. They never commit.

// Debit subtracts amount from the user's balance and returns the new balance.
func Debit(ctx context.Context, q database.Querier, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	balance, err := BalanceOf(ctx, q, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("%w: user %s has %s, needs %s", ErrInsufficientFunds, userID, balance, amount)
	}
	return writeBalance(ctx, q, userID, balance.Sub(amount))
}

// Credit adds amount to the user's balance and returns the new balance.
func Credit(ctx context.Context, q database.Querier, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	balance, err := BalanceOf(ctx, q, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return writeBalance(ctx, q, userID, balance.Add(amount))
}

// Record inserts a ledger entry. ID, status and creation time are filled in
// when empty. A duplicate reference fails.
func Record(ctx context.Context, q database.Querier, txn Transaction) (Transaction, error) {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Status == "" {
		txn.Status = StatusCompleted
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Reference == "" {
		txn.Reference = fmt.Sprintf("%s-%s-%s", txn.Type, txn.UserID, txn.ID)
	}

	var tournamentID sql.NullString
	if txn.TournamentID != "" {
		tournamentID = sql.NullString{String: txn.TournamentID, Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, tournament_id, type, amount, reference, status, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, tournamentID, txn.Type, txn.Amount.String(), txn.Reference, txn.Status, txn.Details, txn.CreatedAt.UnixMilli())
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to record %s transaction %s: %w", txn.Type, txn.Reference, err)
	}
	return txn, nil
}

// HasCompletedPayouts reports whether any completed prize entry exists for the
// tournament, including ones written under the legacy type.
func HasCompletedPayouts(ctx context.Context, q database.Querier, tournamentID string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE tournament_id = ? AND type IN (?, ?) AND status = ?
	`, tournamentID, TypePrize, TypePrizePayout, StatusCompleted).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check payouts for tournament %s: %w", tournamentID, err)
	}
	return count > 0, nil
}

// BalanceOf reads the user's balance through q.
func BalanceOf(ctx context.Context, q database.Querier, userID string) (decimal.Decimal, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT balance FROM users WHERE id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance of %s: %w", userID, err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance %q for user %s: %w", raw, userID, err)
	}
	return balance, nil
}

func writeBalance(ctx context.Context, q database.Querier, userID string, balance decimal.Decimal) (decimal.Decimal, error) {
	_, err := q.ExecContext(ctx, `UPDATE users SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().UTC().UnixMilli(), userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance of %s: %w", userID, err)
	}
	return balance, nil
}
