package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryCollections Category = "collections"
	CategoryExpenses    Category = "expenses"
	CategoryReceivables Category = "receivables"
	CategorySummary     Category = "summary"
)

const (
	Daily   PeriodKind = "daily"
	Weekly  PeriodKind = "weekly"
	Monthly PeriodKind = "monthly"
	Yearly  PeriodKind = "yearly"
)

// DateLayout is the calendar-date layout used by selectors and storage.
const DateLayout = "2006-01-02"

// DateTimeLayout is the naive timestamp layout records are stored with.
const DateTimeLayout = "2006-01-02 15:04:05"

type (
	Category string

	PeriodKind string

	Date struct {
		time.Time
	}

	Collection struct {
		ID              int64
		ClientName      string
		Affiliation     string
		ReferenceNumber string
		Amount          decimal.Decimal
		CashReceived    decimal.Decimal
		ModeOfPayment   string
		PersonInCharge  string
		TransactionAt   time.Time
		CreatedAt       time.Time
	}

	Expense struct {
		ID              int64
		Description     string
		StoreOrMerchant string
		Amount          decimal.Decimal
		PersonInCharge  string
		TransactionAt   time.Time
		CreatedAt       time.Time
	}

	Receivable struct {
		ID              int64
		ClientName      string
		Affiliation     string
		ReferenceNumber string
		Amount          decimal.Decimal
		AmountPaid      decimal.Decimal
		IsPaid          bool
		DateOfPayment   *Date // nil until fully paid
		TransactionAt   time.Time
		CreatedAt       time.Time
	}
)

var ErrInvalidDate = errors.New("invalid date")

var categoryTitles = map[Category]string{
	CategoryCollections: "Collections Report",
	CategoryExpenses:    "Expenses Report",
	CategoryReceivables: "Receivables Report",
	CategorySummary:     "Consolidated Financial Summary",
}

// Categories returns every supported report category in display order.
func Categories() []Category {
	return []Category{CategoryCollections, CategoryExpenses, CategoryReceivables, CategorySummary}
}

// ParseCategory normalizes a raw category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryTitles[c]; !ok {
		return "", &UnsupportedCategoryError{Category: s}
	}
	return c, nil
}

func (c Category) String() string {
	return string(c)
}

// Title returns the report title printed in the header band.
func (c Category) Title() string {
	return categoryTitles[c]
}

// PeriodKinds returns every supported period kind.
func PeriodKinds() []PeriodKind {
	return []PeriodKind{Daily, Weekly, Monthly, Yearly}
}

// ParsePeriodKind normalizes a raw period kind name.
func ParsePeriodKind(s string) (PeriodKind, error) {
	k := PeriodKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Daily, Weekly, Monthly, Yearly:
		return k, nil
	}
	return "", &InvalidPeriodError{Kind: s, Reason: "unknown period kind"}
}

func (k PeriodKind) String() string {
	return string(k)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Unpaid is the part of the collection amount not received in cash.
func (c Collection) Unpaid() decimal.Decimal {
	return c.Amount.Sub(c.CashReceived)
}

// Balance is the outstanding part of the receivable.
func (r Receivable) Balance() decimal.Decimal {
	return r.Amount.Sub(r.AmountPaid)
}
