package prize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputePayouts turns ranked results into payout lines. It has no side effects.
// Results are ordered by position (stable) first; lines whose amount is not
// positive are dropped.
func ComputePayouts(s Schedule, results []Result, awards Awards) []PayoutLine {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Position < ranked[j].Position })

	var lines []PayoutLine
	emit := func(r Result, amount decimal.Decimal, category, reason string) {
		if !amount.IsPositive() {
			return
		}
		lines = append(lines, PayoutLine{
			ParticipantID: r.ParticipantID,
			Position:      r.Position,
			Amount:        amount,
			Category:      category,
			Reason:        reason,
		})
	}

	switch s.Type {
	case TypeFixed:
		if s.Fixed == nil {
			return lines
		}
		n := min(len(ranked), len(s.Fixed.Amounts))
		for i := range n {
			emit(ranked[i], s.Fixed.Amounts[i], "", fmt.Sprintf("Rank %d prize", i+1))
		}
		for _, extra := range s.Fixed.Additional {
			if r, ok := atPosition(ranked, extra.Position); ok {
				emit(r, extra.Amount, "", fmt.Sprintf("Additional prize for position %d", extra.Position))
			}
		}
	case TypePercentage:
		if s.Percentage == nil {
			return lines
		}
		base := s.Percentage.BasePrizePool
		n := min(len(ranked), RankedPercentages)
		for i := range n {
			emit(ranked[i], percentOf(base, s.Percentage.Ranks[i]), "", fmt.Sprintf("Rank %d prize (%s%%)", i+1, s.Percentage.Ranks[i]))
		}
		for _, extra := range s.Percentage.Additional {
			if r, ok := atPosition(ranked, extra.Position); ok {
				emit(r, percentOf(base, extra.Percentage), "", fmt.Sprintf("Additional prize for position %d (%s%%)", extra.Position, extra.Percentage))
			}
		}
	case TypeSpecial:
		if s.Special == nil {
			return lines
		}
		for _, sp := range s.Special.SpecialPrizes {
			winner, ok := resolveWinner(sp.Category, ranked, awards)
			if !ok {
				continue
			}
			amount := sp.Amount
			if !s.Special.IsFixed && sp.IsPercentage {
				amount = percentOf(s.Special.BasePrizePool, sp.Amount)
			}
			emit(winner, amount, sp.Category, fmt.Sprintf("Special prize: %s", sp.Category))
		}
	}
	return lines
}

// Round2 rounds money to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func percentOf(base, pct decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(pct).Div(hundred))
}

// atPosition returns the first result at the given position. Ties at an
// additional position pay once.
func atPosition(ranked []Result, position int) (Result, bool) {
	for _, r := range ranked {
		if r.Position == position {
			return r, true
		}
	}
	return Result{}, false
}

// resolveWinner picks the winner of a special prize. An explicit award wins;
// otherwise the first result (by position) whose label equals the category,
// then the first whose label contains it. Both comparisons ignore case.
func resolveWinner(category string, ranked []Result, awards Awards) (Result, bool) {
	if id, ok := awardFor(awards, category); ok {
		for _, r := range ranked {
			if r.ParticipantID == id {
				return r, true
			}
		}
		return Result{}, false
	}

	want := strings.ToLower(strings.TrimSpace(category))
	if want == "" {
		return Result{}, false
	}
	for _, r := range ranked {
		if strings.ToLower(strings.TrimSpace(r.Label)) == want {
			return r, true
		}
	}
	for _, r := range ranked {
		if r.Label != "" && strings.Contains(strings.ToLower(r.Label), want) {
			return r, true
		}
	}
	return Result{}, false
}

// awardFor looks category up exactly, then case-insensitively in key order.
func awardFor(awards Awards, category string) (string, bool) {
	if id, ok := awards[category]; ok && id != "" {
		return id, true
	}
	keys := make([]string, 0, len(awards))
	for k := range awards {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if id := awards[k]; id != "" && strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(category)) {
			return id, true
		}
	}
	return "", false
}
