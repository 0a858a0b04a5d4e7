package locale

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsoToDisplayDate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2024-03-15": "15.03.2024",
		"":           "",
		"2024-03":    "2024-03",
		"15.03.2024": "15.03.2024",
		"a-b-c-d":    "a-b-c-d",
	}
	for in, want := range cases {
		if got := IsoToDisplayDate(in); got != want {
			t.Fatalf("IsoToDisplayDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayToIsoDate(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"15.03.2024": "2024-03-15",
		"":           "",
		"15.03":      "15.03",
		"2024-03-15": "2024-03-15",
	}
	for in, want := range cases {
		if got := DisplayToIsoDate(in); got != want {
			t.Fatalf("DisplayToIsoDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	t.Parallel()

	for _, iso := range []string{"2024-01-01", "1999-12-31", "2025-02-28"} {
		if got := DisplayToIsoDate(IsoToDisplayDate(iso)); got != iso {
			t.Fatalf("round trip of %s produced %s", iso, got)
		}
	}
}

func TestNumberToDisplayAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want string
	}{
		{1234.56, "1.234,56"},
		{"1234.56", "1.234,56"},
		{0, "0,00"},
		{1234567.891, "1.234.567,89"},
		{0.005, "0,01"},
		{-0.005, "-0,01"},
		{2.345, "2,35"},
		{-1234.5, "-1.234,50"},
		{999.999, "1.000,00"},
		{decimal.RequireFromString("42"), "42,00"},
		{decimal.NullDecimal{}, ""},
		{json.Number("7.1"), "7,10"},
		{"abc", ""},
		{"", ""},
		{nil, ""},
		{math.NaN(), ""},
		{struct{}{}, ""},
	}
	for _, tc := range cases {
		if got := NumberToDisplayAmount(tc.in); got != tc.want {
			t.Fatalf("NumberToDisplayAmount(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayAmountToNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"1.234,56":     "1234.56",
		"1234,5":       "1234.5",
		"":             "0",
		"   ":          "0",
		"abc":          "0",
		"-12,30":       "-12.3",
		"1.000.000,00": "1000000",
	}
	for in, want := range cases {
		got := DisplayAmountToNumber(in)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("DisplayAmountToNumber(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"1234.56", "0.01", "-99.90", "1000000", "12.3"} {
		amount := decimal.RequireFromString(raw)
		back := DisplayAmountToNumber(NumberToDisplayAmount(amount))
		if !back.Equal(amount) {
			t.Fatalf("round trip of %s produced %s", raw, back)
		}
	}

	// only two decimals survive
	back := DisplayAmountToNumber(NumberToDisplayAmount("1.239"))
	if !back.Equal(decimal.RequireFromString("1.24")) {
		t.Fatalf("expected rounding to 1.24, got %s", back)
	}
}

func TestFormatNumberAndPercent(t *testing.T) {
	t.Parallel()

	if got := FormatNumber(decimal.RequireFromString("1234.5678"), DefaultNumberDecimals); got != "1.234,57" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatNumber(decimal.RequireFromString("1234.5"), 0); got != "1.235" {
		t.Fatalf("FormatNumber without decimals = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("0.455"), DefaultPercentDecimals); got != "45,5 %" {
		t.Fatalf("FormatPercent = %q", got)
	}
	if got := FormatPercent(decimal.NewFromInt(1), 0); got != "100 %" {
		t.Fatalf("FormatPercent whole = %q", got)
	}
}
