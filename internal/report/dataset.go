// Package report aggregates stored records into per-category datasets and
// presents them as document sections.
package report

import (
	"time"

	"rcrao/internal/core"

	"github.com/shopspring/decimal"
)

// Dataset is the aggregated content of one report category.
type Dataset interface {
	Category() core.Category
	Totals() []LabeledAmount
}

// LabeledAmount is one computed total.
type LabeledAmount struct {
	Label string
	Value decimal.Decimal
}

type CollectionRow struct {
	Date            core.Date
	ClientName      string
	Affiliation     string
	ReferenceNumber string
	Amount          decimal.Decimal
	Received        decimal.Decimal
	Unpaid          decimal.Decimal
	ModeOfPayment   string
	PersonInCharge  string
}

type CollectionsDataset struct {
	Rows          []CollectionRow
	TotalAmount   decimal.Decimal
	TotalReceived decimal.Decimal
}

func (CollectionsDataset) Category() core.Category { return core.CategoryCollections }

func (d CollectionsDataset) Totals() []LabeledAmount {
	return []LabeledAmount{
		{Label: LabelTotalAmount, Value: d.TotalAmount},
		{Label: LabelTotalCashReceived, Value: d.TotalReceived},
	}
}

type ExpenseRow struct {
	Date            core.Date
	Description     string
	StoreOrMerchant string
	Amount          decimal.Decimal
	PersonInCharge  string
}

type ExpensesDataset struct {
	Rows  []ExpenseRow
	Total decimal.Decimal
}

func (ExpensesDataset) Category() core.Category { return core.CategoryExpenses }

func (d ExpensesDataset) Totals() []LabeledAmount {
	return []LabeledAmount{{Label: LabelTotalExpenses, Value: d.Total}}
}

type ReceivableAddedRow struct {
	DateAdded       core.Date
	ClientName      string
	Affiliation     string
	ReferenceNumber string
	Amount          decimal.Decimal
}

type OutstandingRow struct {
	ClientName      string
	ReferenceNumber string
	Amount          decimal.Decimal
	AmountPaid      decimal.Decimal
	Balance         decimal.Decimal
}

// ReceivablesDataset holds two independent views: receivables created in the
// window, and receivables still unpaid at AsOf regardless of the window start.
type ReceivablesDataset struct {
	AsOf             time.Time
	Added            []ReceivableAddedRow
	TotalAdded       decimal.Decimal
	Outstanding      []OutstandingRow
	TotalOutstanding decimal.Decimal
}

func (ReceivablesDataset) Category() core.Category { return core.CategoryReceivables }

func (d ReceivablesDataset) Totals() []LabeledAmount {
	return []LabeledAmount{
		{Label: LabelTotalAdded, Value: d.TotalAdded},
		{Label: LabelTotalOutstandingBalance, Value: d.TotalOutstanding},
	}
}

// SummaryDataset carries the period-scoped scalars of the consolidated
// summary. EstimatedReceivablePayments counts receivables flagged paid whose
// payment date falls in the period; it is an estimate, not a cash ledger.
type SummaryDataset struct {
	CashCollected               decimal.Decimal
	EstimatedReceivablePayments decimal.Decimal
	TotalInflows                decimal.Decimal
	TotalExpenses               decimal.Decimal
	TotalOutflows               decimal.Decimal
	ReceivablesAdded            decimal.Decimal
	OutstandingAtEnd            decimal.Decimal
	Net                         decimal.Decimal
}

func (SummaryDataset) Category() core.Category { return core.CategorySummary }

func (d SummaryDataset) Totals() []LabeledAmount {
	return []LabeledAmount{
		{Label: LabelCashCollected, Value: d.CashCollected},
		{Label: LabelReceivablePayments, Value: d.EstimatedReceivablePayments},
		{Label: LabelTotalInflows, Value: d.TotalInflows},
		{Label: LabelTotalExpensesPaid, Value: d.TotalExpenses},
		{Label: LabelTotalOutflows, Value: d.TotalOutflows},
		{Label: LabelNewReceivables, Value: d.ReceivablesAdded},
		{Label: LabelTotalOutstandingEnd, Value: d.OutstandingAtEnd},
		{Label: LabelNetCashFlow, Value: d.Net},
	}
}
