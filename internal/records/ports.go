package records

import (
	"context"
	"time"

	"rcrao/internal/core"

	"github.com/shopspring/decimal"
)

// Ports for the read-only record store. Instant windows are inclusive on
// both ends.
type (
	// CollectionReader filters collections by transaction time and returns
	// them in creation order.
	CollectionReader interface {
		CollectionsBetween(ctx context.Context, from, to time.Time) ([]core.Collection, error)
		SumCashReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	}

	// ExpenseReader filters expenses by transaction time and returns them in
	// creation order.
	ExpenseReader interface {
		ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error)
		SumExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	}

	// ReceivableReader answers both receivable sub-reports and the summary.
	ReceivableReader interface {
		// ReceivablesCreatedBetween filters on creation time, in creation order.
		ReceivablesCreatedBetween(ctx context.Context, from, to time.Time) ([]core.Receivable, error)
		// OutstandingReceivables returns unpaid receivables created at or before
		// asOf, ordered by client name.
		OutstandingReceivables(ctx context.Context, asOf time.Time) ([]core.Receivable, error)
		SumReceivablesCreated(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
		SumOutstanding(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
		// SumPaidReceivables totals amount_paid of fully paid receivables whose
		// date of payment falls within the calendar dates.
		SumPaidReceivables(ctx context.Context, from, to core.Date) (decimal.Decimal, error)
	}

	Store interface {
		CollectionReader
		ExpenseReader
		ReceivableReader
	}
)
