package memory

import (
	"fmt"
	"strings"
	"time"

	"rcrao/internal/core"

	"github.com/shopspring/decimal"
)

// Seed rows mirror the column names of the SQLite schema. Timestamps use
// core.DateTimeLayout; a bare date is accepted and means midnight.

type collectionSeed struct {
	ID                  int64           `json:"id"`
	ClientName          string          `json:"client_name"`
	Affiliation         string          `json:"affiliation"`
	ReferenceNumber     string          `json:"reference_number"`
	Amount              decimal.Decimal `json:"amount"`
	CashReceived        decimal.Decimal `json:"cash_received"`
	ModeOfPayment       string          `json:"mode_of_payment"`
	PersonInCharge      string          `json:"person_in_charge"`
	TransactionDatetime string          `json:"transaction_datetime"`
	CreatedAt           string          `json:"created_at"`
}

type expenseSeed struct {
	ID                  int64           `json:"id"`
	Expense             string          `json:"expense"`
	StoreOrMerchant     string          `json:"store_merchant"`
	Amount              decimal.Decimal `json:"amount"`
	PersonInCharge      string          `json:"person_in_charge"`
	TransactionDatetime string          `json:"transaction_datetime"`
	CreatedAt           string          `json:"created_at"`
}

type receivableSeed struct {
	ID                  int64           `json:"id"`
	ClientName          string          `json:"client_name"`
	Affiliation         string          `json:"affiliation"`
	ReferenceNumber     string          `json:"reference_number"`
	Amount              decimal.Decimal `json:"amount"`
	AmountPaid          decimal.Decimal `json:"amount_paid"`
	IsPaid              bool            `json:"is_paid"`
	DateOfPayment       string          `json:"date_of_payment"`
	TransactionDatetime string          `json:"transaction_datetime"`
	CreatedAt           string          `json:"created_at"`
}

func (c collectionSeed) record() (core.Collection, error) {
	txAt, err := ParseTimestamp(c.TransactionDatetime)
	if err != nil {
		return core.Collection{}, fmt.Errorf("transaction_datetime: %w", err)
	}
	createdAt, err := parseCreatedAt(c.CreatedAt, txAt)
	if err != nil {
		return core.Collection{}, err
	}
	return core.Collection{
		ID:              c.ID,
		ClientName:      c.ClientName,
		Affiliation:     c.Affiliation,
		ReferenceNumber: c.ReferenceNumber,
		Amount:          c.Amount,
		CashReceived:    c.CashReceived,
		ModeOfPayment:   c.ModeOfPayment,
		PersonInCharge:  c.PersonInCharge,
		TransactionAt:   txAt,
		CreatedAt:       createdAt,
	}, nil
}

func (e expenseSeed) record() (core.Expense, error) {
	txAt, err := ParseTimestamp(e.TransactionDatetime)
	if err != nil {
		return core.Expense{}, fmt.Errorf("transaction_datetime: %w", err)
	}
	createdAt, err := parseCreatedAt(e.CreatedAt, txAt)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:              e.ID,
		Description:     e.Expense,
		StoreOrMerchant: e.StoreOrMerchant,
		Amount:          e.Amount,
		PersonInCharge:  e.PersonInCharge,
		TransactionAt:   txAt,
		CreatedAt:       createdAt,
	}, nil
}

func (r receivableSeed) record() (core.Receivable, error) {
	txAt, err := ParseTimestamp(r.TransactionDatetime)
	if err != nil {
		return core.Receivable{}, fmt.Errorf("transaction_datetime: %w", err)
	}
	createdAt, err := parseCreatedAt(r.CreatedAt, txAt)
	if err != nil {
		return core.Receivable{}, err
	}
	rec := core.Receivable{
		ID:              r.ID,
		ClientName:      r.ClientName,
		Affiliation:     r.Affiliation,
		ReferenceNumber: r.ReferenceNumber,
		Amount:          r.Amount,
		AmountPaid:      r.AmountPaid,
		IsPaid:          r.IsPaid,
		TransactionAt:   txAt,
		CreatedAt:       createdAt,
	}
	if strings.TrimSpace(r.DateOfPayment) != "" {
		d, err := core.ParseDate(r.DateOfPayment)
		if err != nil {
			return core.Receivable{}, fmt.Errorf("date_of_payment: %w", err)
		}
		rec.DateOfPayment = &d
	}
	return rec, nil
}

// ParseTimestamp accepts "YYYY-MM-DD HH:MM:SS", RFC 3339 or a bare date.
// Records hold wall-clock times, so an RFC 3339 offset is dropped and the
// clock reading kept as written.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{core.DateTimeLayout, time.RFC3339, core.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// a missing created_at defaults to the transaction time
func parseCreatedAt(s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("created_at: %w", err)
	}
	return t, nil
}
