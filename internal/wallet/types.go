package wallet

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound      = fmt.Errorf("%w: user", errs.ErrNotFound)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", errs.ErrPolicyViolation)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", errs.ErrValidation)
	ErrInvalidUser       = fmt.Errorf("%w: invalid user", errs.ErrValidation)
)

// TxType is the kind of ledger entry.
type TxType string

const (
	TypeFunding TxType = "funding"
	TypeEntry   TxType = "entry"
	TypePrize   TxType = "prize"
	TypeRefund  TxType = "refund"
	// TypePrizePayout is written by older deployments. It still counts as a payout.
	TypePrizePayout TxType = "prize_payout"
)

// TxStatus is the state of a ledger entry.
type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusCompleted TxStatus = "completed"
	StatusFailed    TxStatus = "failed"
)

// User is an account holding a balance.
type User struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Transaction is one ledger entry. Amounts are always positive; the type gives
// the direction.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	TournamentID string          `json:"tournamentId,omitempty"`
	Type         TxType          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Reference    string          `json:"reference"`
	Status       TxStatus        `json:"status"`
	Details      string          `json:"details,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// store handles all database operations for wallets.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
