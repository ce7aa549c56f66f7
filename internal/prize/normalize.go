package prize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// Keys accepted for the first five ranks, in rank order.
var (
	ordinalKeys = [RankedPercentages]string{"1st", "2nd", "3rd", "4th", "5th"}
	wordKeys    = [RankedPercentages]string{"first", "second", "third", "fourth", "fifth"}
)

// Normalize decodes a raw prize configuration of the given type into a Schedule.
//
// Historic clients sent several shapes for the same type. Each shape has its own
// decoder and the decoder is picked from the keys present, never by guessing at
// individual values. Amounts are accepted as numbers or numeric strings; anything
// else counts as zero. Negative amounts are rejected.
func Normalize(t Type, raw json.RawMessage) (Schedule, error) {
	if _, err := ParseType(string(t)); err != nil {
		return Schedule{}, err
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return Schedule{}, err
	}

	switch t {
	case TypeFixed:
		var f *Fixed
		if _, ok := obj["amounts"]; ok {
			f, err = decodeFixedList(obj)
		} else {
			f, err = decodeFixedRanks(obj)
		}
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Type: t, Fixed: f}, nil
	case TypePercentage:
		p, err := decodePercentage(obj)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Type: t, Percentage: p}, nil
	default:
		s, err := decodeSpecial(obj)
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{Type: t, Special: s}, nil
	}
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrizes, err)
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

// decodeFixedList handles {"amounts": [...], "additional": [...]}.
func decodeFixedList(obj map[string]any) (*Fixed, error) {
	f := &Fixed{Amounts: []decimal.Decimal{}, Additional: []FixedExtra{}}
	list, ok := obj["amounts"].([]any)
	if !ok && obj["amounts"] != nil {
		return nil, fmt.Errorf("%w: amounts must be a list", ErrMalformedPrizes)
	}
	for i, v := range list {
		amount, err := amountOf(fmt.Sprintf("amounts[%d]", i), v)
		if err != nil {
			return nil, err
		}
		f.Amounts = append(f.Amounts, amount)
	}
	extras, err := decodeFixedExtras(obj["additional"])
	if err != nil {
		return nil, err
	}
	f.Additional = extras
	return f, nil
}

// decodeFixedRanks handles the legacy {"1st": 1000, "2nd": 500} shape. Only
// ranks that are present are appended, in rank order.
func decodeFixedRanks(obj map[string]any) (*Fixed, error) {
	f := &Fixed{Amounts: []decimal.Decimal{}, Additional: []FixedExtra{}}
	for i := range RankedPercentages {
		v, ok := rankValue(obj, i)
		if !ok {
			continue
		}
		amount, err := amountOf(ordinalKeys[i], v)
		if err != nil {
			return nil, err
		}
		f.Amounts = append(f.Amounts, amount)
	}
	extras, err := decodeFixedExtras(obj["additional"])
	if err != nil {
		return nil, err
	}
	f.Additional = extras
	return f, nil
}

func decodeFixedExtras(v any) ([]FixedExtra, error) {
	extras := []FixedExtra{}
	for i, entry := range objectsOf(v) {
		amount, err := amountOf(fmt.Sprintf("additional[%d].amount", i), entry["amount"])
		if err != nil {
			return nil, err
		}
		extras = append(extras, FixedExtra{Position: positionOf(entry["position"]), Amount: amount})
	}
	return extras, nil
}

func decodePercentage(obj map[string]any) (*Percentage, error) {
	base, err := amountOf("basePrizePool", obj["basePrizePool"])
	if err != nil {
		return nil, err
	}
	p := &Percentage{BasePrizePool: base, Additional: []PercentageExtra{}}
	for i := range RankedPercentages {
		v, _ := rankValue(obj, i)
		pct, err := amountOf(ordinalKeys[i], v)
		if err != nil {
			return nil, err
		}
		p.Ranks[i] = pct
	}
	for i, entry := range objectsOf(obj["additional"]) {
		pct, err := amountOf(fmt.Sprintf("additional[%d].percentage", i), entry["percentage"])
		if err != nil {
			return nil, err
		}
		p.Additional = append(p.Additional, PercentageExtra{Position: positionOf(entry["position"]), Percentage: pct})
	}
	return p, nil
}

func decodeSpecial(obj map[string]any) (*Special, error) {
	base, err := amountOf("basePrizePool", obj["basePrizePool"])
	if err != nil {
		return nil, err
	}
	s := &Special{
		IsFixed:       boolOf(obj["isFixed"], true),
		BasePrizePool: base,
		SpecialPrizes: []SpecialPrize{},
	}
	for i, entry := range objectsOf(obj["specialPrizes"]) {
		amount, err := amountOf(fmt.Sprintf("specialPrizes[%d].amount", i), entry["amount"])
		if err != nil {
			return nil, err
		}
		category, _ := entry["category"].(string)
		s.SpecialPrizes = append(s.SpecialPrizes, SpecialPrize{
			Category:     strings.TrimSpace(category),
			Amount:       amount,
			IsPercentage: boolOf(entry["isPercentage"], false),
		})
	}
	return s, nil
}

// rankValue looks a rank up under its ordinal key, then its word key.
func rankValue(obj map[string]any, rank int) (any, bool) {
	for _, key := range []string{ordinalKeys[rank], wordKeys[rank]} {
		if v, ok := obj[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func objectsOf(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// amountOf coerces a money value. Unusable values are zero; negatives are an error.
func amountOf(field string, v any) (decimal.Decimal, error) {
	d, ok := decimalOf(v)
	if !ok {
		if v != nil {
			log.Debug("Prize value is not numeric, treating as zero", "field", field, "value", v)
		}
		return decimal.Zero, nil
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is %s", ErrNegativeAmount, field, d)
	}
	return d, nil
}

func positionOf(v any) int {
	d, ok := decimalOf(v)
	if !ok || d.IsNegative() {
		return 0
	}
	return int(d.IntPart())
}

func decimalOf(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	default:
		return decimal.Zero, false
	}
}

func boolOf(v any, def bool) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	}
	return def
}
