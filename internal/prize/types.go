package prize

import (
	"fmt"

	"github.com/mauv0809/prizeplay/internal/errs"
	"github.com/shopspring/decimal"
)

// Type selects the payout policy of a tournament.
type Type string

const (
	TypeFixed      Type = "fixed"
	TypePercentage Type = "percentage"
	TypeSpecial    Type = "special"
)

// RankedPercentages is the number of ranks a percentage schedule names directly.
const RankedPercentages = 5

var (
	ErrUnknownType     = fmt.Errorf("%w: unknown prize type", errs.ErrValidation)
	ErrMalformedPrizes = fmt.Errorf("%w: malformed prize configuration", errs.ErrValidation)
	ErrNegativeAmount  = fmt.Errorf("%w: prize amounts must not be negative", errs.ErrValidation)
)

// ParseType validates a prize type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeFixed, TypePercentage, TypeSpecial:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Schedule is the canonical prize configuration. Exactly one of the policy
// payloads is set, matching Type.
type Schedule struct {
	Type       Type        `json:"type"`
	Fixed      *Fixed      `json:"fixed,omitempty"`
	Percentage *Percentage `json:"percentage,omitempty"`
	Special    *Special    `json:"special,omitempty"`
}

// Fixed pays Amounts[i] to rank i+1, plus explicit amounts for positions beyond the list.
type Fixed struct {
	Amounts    []decimal.Decimal `json:"amounts"`
	Additional []FixedExtra      `json:"additional"`
}

type FixedExtra struct {
	Position int             `json:"position"`
	Amount   decimal.Decimal `json:"amount"`
}

// Percentage splits BasePrizePool between ranks 1..5 and any additional positions.
// The percentages are not required to sum to 100.
type Percentage struct {
	BasePrizePool decimal.Decimal                    `json:"basePrizePool"`
	Ranks         [RankedPercentages]decimal.Decimal `json:"ranks"`
	Additional    []PercentageExtra                  `json:"additional"`
}

type PercentageExtra struct {
	Position   int             `json:"position"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Special pays named bonus prizes. IsFixed tells whether the tournament is funded
// from the sum of the prizes or from BasePrizePool.
type Special struct {
	IsFixed       bool            `json:"isFixed"`
	BasePrizePool decimal.Decimal `json:"basePrizePool"`
	SpecialPrizes []SpecialPrize  `json:"specialPrizes"`
}

type SpecialPrize struct {
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	IsPercentage bool            `json:"isPercentage"`
}

// TotalPool is the amount committed (and reserved from the organizer) at creation.
func (s Schedule) TotalPool() decimal.Decimal {
	total := decimal.Zero
	switch s.Type {
	case TypeFixed:
		if s.Fixed == nil {
			return total
		}
		for _, a := range s.Fixed.Amounts {
			total = total.Add(a)
		}
		for _, extra := range s.Fixed.Additional {
			total = total.Add(extra.Amount)
		}
	case TypePercentage:
		if s.Percentage != nil {
			total = s.Percentage.BasePrizePool
		}
	case TypeSpecial:
		if s.Special == nil {
			return total
		}
		if !s.Special.IsFixed {
			return s.Special.BasePrizePool
		}
		for _, p := range s.Special.SpecialPrizes {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Result is one ranked participant as submitted by the organizer.
type Result struct {
	ParticipantID string  `json:"participantId"`
	Position      int     `json:"position"`
	Score         float64 `json:"score"`
	// Label is free-form result metadata, used to resolve special prizes that
	// were not explicitly awarded.
	Label string `json:"label,omitempty"`
}

// Awards maps a special prize category to the participant who won it.
type Awards map[string]string

// PayoutLine is one computed payout, not yet applied to any balance.
type PayoutLine struct {
	ParticipantID string          `json:"participantId"`
	Position      int             `json:"position"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Reason        string          `json:"reason"`
}

// Sum adds up the amounts of the given lines.
func Sum(lines []PayoutLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
