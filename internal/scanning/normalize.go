package scanning

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var requiredFields = [...]string{"date", "merchant", "amount", "type", "category"}

var validTypes = map[string]bool{"income": true, "expense": true}

var validCategories = func() map[string]bool {
	set := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		set[c] = true
	}
	return set
}()

// currencyGlyphs are stripped from textual amounts before numeric parsing.
const currencyGlyphs = "¥￥元$€£, "

// ParseFields extracts the JSON object embedded in a raw model reply and
// normalizes it into Fields.
func ParseFields(raw string) (*Fields, error) {
	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	return normalize(data, raw)
}

// normalize coerces a parsed model object into the closed record schema.
// After the presence check only the amount parse can fail; every other
// step degrades to a deterministic default, because the source is a
// best-effort model and bad guesses are corrected by the user after
// insertion rather than blocking it.
func normalize(data map[string]any, raw string) (*Fields, error) {
	for _, name := range requiredFields {
		if _, ok := data[name]; !ok {
			return nil, &MissingFieldError{Field: name}
		}
	}

	amount, err := coerceAmount(data["amount"])
	if err != nil {
		return nil, err
	}

	f := &Fields{
		Merchant: strings.TrimSpace(asString(data["merchant"])),
		Amount:   amount,
		Type:     asString(data["type"]),
		Category: asString(data["category"]),
		Raw:      raw,
	}

	if !validTypes[f.Type] {
		f.Type = "expense"
	}
	if !validCategories[f.Category] {
		f.Category = "other"
	}
	f.Date = coerceDate(asString(data["date"]))

	return f, nil
}

// coerceAmount accepts either a JSON number or a string like "¥1,234.5"
// and yields a non-negative value rounded to two decimals.
func coerceAmount(v any) (float64, error) {
	var amount float64
	switch val := v.(type) {
	case float64:
		amount = val
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if strings.ContainsRune(currencyGlyphs, r) {
				return -1
			}
			return r
		}, val)
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, &AmountParseError{Value: val, Err: err}
		}
		amount = parsed
	default:
		return 0, &AmountParseError{Value: fmt.Sprintf("%v", v), Err: fmt.Errorf("unexpected type %T", v)}
	}

	// Receipts record magnitudes; direction lives in the type field.
	return math.Round(math.Abs(amount)*100) / 100, nil
}

// coerceDate passes strict YYYY-MM-DD values through and replaces
// everything else, including impossible calendar dates, with today.
func coerceDate(s string) string {
	if t, err := time.Parse(dateLayout, s); err == nil && t.Format(dateLayout) == s {
		return s
	}
	return time.Now().Format(dateLayout)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
