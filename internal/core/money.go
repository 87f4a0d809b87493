// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal at full precision. Rounding to two
// places happens only when an amount is rendered for display.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// PesoSign is the grapheme used by the default currency.
const PesoSign = "₱"

var ErrInvalidAmount = errors.New("invalid amount")

// StripAmountDecorations removes currency symbols, thousands separators and
// spaces from a rendered amount. A leading or trailing ISO 4217 code such as
// "PHP" or "USD" is dropped too.
func StripAmountDecorations(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	return trimCurrencyCode(s)
}

func trimCurrencyCode(s string) string {
	if len(s) > 3 && isCurrencyCode(s[:3]) {
		s = s[3:]
	} else if len(s) > 4 && s[0] == '-' && isCurrencyCode(s[1:4]) {
		s = "-" + s[4:]
	}
	if len(s) > 3 && isCurrencyCode(s[len(s)-3:]) {
		s = s[:len(s)-3]
	}
	return s
}

func isCurrencyCode(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return money.GetCurrency(s) != nil
}

// ParseAmount parses a rendered or raw amount into a decimal.
//
// Examples:
//
//	ParseAmount("1,234.50")   -> 1234.5
//	ParseAmount("₱ 1,234.50") -> 1234.5
//	ParseAmount("1234.5")     -> 1234.5
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := StripAmountDecorations(s)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// IsNumeric reports whether a rendered cell holds an amount or a number.
func IsNumeric(s string) bool {
	_, err := ParseAmount(s)
	return err == nil
}

// cents rounds half away from zero to two places and returns minor units.
func cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FormatNumber renders an amount with two decimals and thousands separators.
func FormatNumber(d decimal.Decimal) string {
	return money.NewFormatter(2, ".", ",", "", "1").Format(cents(d))
}

// FormatAmount renders an amount with the grapheme of the given ISO currency
// code. Unknown codes fall back to the code itself as prefix.
func FormatAmount(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		if d.IsNegative() {
			return "-" + currency + FormatNumber(d.Neg())
		}
		return currency + FormatNumber(d)
	}
	return money.NewFormatter(2, ".", ",", cur.Grapheme, "$1").Format(cents(d))
}

// SumAmounts adds amounts at full precision.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
