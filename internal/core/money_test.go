package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1,234.50", "1234.5", true},
		{"₱ 1,234.50", "1234.5", true},
		{"₱1,234.50", "1234.5", true},
		{"$1,100.00", "1100", true},
		{"€1,100.00", "1100", true},
		{"£1,100.00", "1100", true},
		{"-$400.00", "-400", true},
		{"PHP 1,234.50", "1234.5", true},
		{"-USD12", "-12", true},
		{"1,234.50 EUR", "1234.5", true},
		{"1\u00a0234.50", "1234.5", true},
		{"1234.5", "1234.5", true},
		{" 2.50 ", "2.5", true},
		{"-15.00", "-15", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"₱", "", false},
		{"REF-001", "", false},
		{"XYZ100", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "0.00"},
		{"1500", "1,500.00"},
		{"1234567.891", "1,234,567.89"},
		{"0.005", "0.01"}, // half away from zero
		{"-400", "-400.00"},
	}
	for _, tc := range cases {
		if got := FormatNumber(decimal.RequireFromString(tc.in)); got != tc.out {
			t.Fatalf("%s expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1100"), "PHP"); got != "₱1,100.00" {
		t.Fatalf("PHP got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("12.3"), "XXZ"); got != "XXZ12.30" {
		t.Fatalf("unknown currency got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("-1234.5"), "XXZ"); got != "-XXZ1,234.50" {
		t.Fatalf("unknown currency negative got %q", got)
	}
}

func TestFormattedAmountsStayNumeric(t *testing.T) {
	for _, cur := range []string{"PHP", "USD", "EUR", "GBP", "JPY"} {
		rendered := FormatAmount(decimal.RequireFromString("1100"), cur)
		if !IsNumeric(rendered) {
			t.Errorf("%s: %q not recognised as numeric", cur, rendered)
		}
	}
}

func TestSumAmountsKeepsPrecision(t *testing.T) {
	total := SumAmounts(
		decimal.RequireFromString("0.005"),
		decimal.RequireFromString("0.005"),
		decimal.RequireFromString("0.005"),
	)
	if !total.Equal(decimal.RequireFromString("0.015")) {
		t.Fatalf("expected 0.015, got %s", total)
	}
	if FormatNumber(total) != "0.02" {
		t.Fatalf("display got %s", FormatNumber(total))
	}
}

func TestIsNumeric(t *testing.T) {
	if !IsNumeric("₱ 1,000.00") || !IsNumeric("42") {
		t.Fatalf("expected numeric")
	}
	if IsNumeric("Cash") || IsNumeric("Mar 15, 2024") {
		t.Fatalf("expected text")
	}
}
