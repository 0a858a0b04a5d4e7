// Package locale converts between canonical values (ISO dates, plain
// decimals) and their German display form. All functions are total: malformed
// input is passed through or coerced to a sentinel, never reported as an error.
package locale

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultNumberDecimals  = 2
	DefaultPercentDecimals = 1

	thousandsSeparator = "."
	decimalSeparator   = ","
)

var amountReplacer = strings.NewReplacer(thousandsSeparator, "", decimalSeparator, ".")

// IsoToDisplayDate turns "2024-03-15" into "15.03.2024".
func IsoToDisplayDate(iso string) string {
	if iso == "" {
		return ""
	}
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}

// DisplayToIsoDate turns "15.03.2024" into "2024-03-15".
func DisplayToIsoDate(display string) string {
	if display == "" {
		return ""
	}
	parts := strings.Split(display, ".")
	if len(parts) != 3 {
		return display
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// NumberToDisplayAmount renders a number or numeric string as "1.234,56".
// Non-numeric input yields the empty string.
func NumberToDisplayAmount(value any) string {
	d, ok := toDecimal(value)
	if !ok {
		return ""
	}
	return group(d, DefaultNumberDecimals)
}

// DisplayAmountToNumber parses "1.234,56" back into 1234.56. Blank or
// unparsable input yields zero.
func DisplayAmountToNumber(display string) decimal.Decimal {
	raw := strings.TrimSpace(display)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(amountReplacer.Replace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatNumber renders value with German separators and a fixed number of decimals.
func FormatNumber(value decimal.Decimal, decimals int32) string {
	if decimals < 0 {
		decimals = 0
	}
	return group(value, decimals)
}

// FormatPercent renders a 0.0–1.0 fraction as "45,5 %".
func FormatPercent(fraction decimal.Decimal, decimals int32) string {
	return FormatNumber(fraction.Shift(2), decimals) + " %"
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	default:
		return decimal.Zero, false
	}
}

func parseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// group rounds half away from zero and inserts thousands separators.
func group(d decimal.Decimal, decimals int32) string {
	fixed := d.Round(decimals).StringFixed(decimals)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	if strings.Trim(intPart, "0") == "" && strings.Trim(fracPart, "0") == "" {
		sign = ""
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSeparator)
		}
		b.WriteRune(r)
	}
	if decimals > 0 {
		b.WriteString(decimalSeparator)
		b.WriteString(fracPart)
	}
	return b.String()
}
