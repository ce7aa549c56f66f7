package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store reads and seeds user balances. Balance changes that belong to a
// business operation go through the transaction-scoped helpers instead.
type Store interface {
	CreateUser(ctx context.Context, id, name string, balance decimal.Decimal) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	Balance(ctx context.Context, id string) (decimal.Decimal, error)
	Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
	TournamentTransactions(ctx context.Context, tournamentID string) ([]Transaction, error)
}
