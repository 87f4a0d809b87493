package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"rcrao/internal/core"

	"github.com/shopspring/decimal"
)

const (
	collectionsBetweenSQL = `SELECT id, client_name, affiliation, reference_number, amount_cents, cash_received_cents,
       mode_of_payment, person_in_charge, transaction_datetime, created_at
FROM collections
WHERE transaction_datetime BETWEEN ? AND ?
ORDER BY created_at, id`

	sumCashReceivedSQL = `SELECT COALESCE(SUM(cash_received_cents), 0) FROM collections WHERE transaction_datetime BETWEEN ? AND ?`

	expensesBetweenSQL = `SELECT id, expense, store_merchant, amount_cents, person_in_charge, transaction_datetime, created_at
FROM expenses
WHERE transaction_datetime BETWEEN ? AND ?
ORDER BY created_at, id`

	sumExpensesSQL = `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE transaction_datetime BETWEEN ? AND ?`

	receivableColumns = `id, client_name, affiliation, reference_number, amount_cents, amount_paid_cents,
       is_paid, date_of_payment, transaction_datetime, created_at`

	receivablesCreatedBetweenSQL = `SELECT ` + receivableColumns + `
FROM receivables
WHERE created_at BETWEEN ? AND ?
ORDER BY created_at, id`

	outstandingReceivablesSQL = `SELECT ` + receivableColumns + `
FROM receivables
WHERE created_at <= ? AND is_paid = 0
ORDER BY client_name, id`

	sumReceivablesCreatedSQL = `SELECT COALESCE(SUM(amount_cents), 0) FROM receivables WHERE created_at BETWEEN ? AND ?`

	sumOutstandingSQL = `SELECT COALESCE(SUM(amount_cents - amount_paid_cents), 0) FROM receivables WHERE created_at <= ? AND is_paid = 0`

	sumPaidReceivablesSQL = `SELECT COALESCE(SUM(amount_paid_cents), 0) FROM receivables WHERE is_paid = 1 AND date_of_payment BETWEEN ? AND ?`
)

func (r *SQLiteRepository) CollectionsBetween(ctx context.Context, from, to time.Time) ([]core.Collection, error) {
	rows, err := r.db.QueryContext(ctx, collectionsBetweenSQL, stamp(from), stamp(to))
	if err != nil {
		return nil, fmt.Errorf("query collections_between: %w", err)
	}
	defer rows.Close()

	var out []core.Collection
	for rows.Next() {
		var (
			c                core.Collection
			amount, received int64
			txAt, createdAt  string
		)
		if err := rows.Scan(&c.ID, &c.ClientName, &c.Affiliation, &c.ReferenceNumber, &amount, &received,
			&c.ModeOfPayment, &c.PersonInCharge, &txAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		c.Amount, c.CashReceived = fromCents(amount), fromCents(received)
		if c.TransactionAt, err = parseStamp(txAt); err != nil {
			return nil, fmt.Errorf("collection %d transaction_datetime: %w", c.ID, err)
		}
		if c.CreatedAt, err = parseStamp(createdAt); err != nil {
			return nil, fmt.Errorf("collection %d created_at: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}

	slog.DebugContext(ctx, "Loaded collections", "from", stamp(from), "to", stamp(to), "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) SumCashReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "sum_cash_received", sumCashReceivedSQL, stamp(from), stamp(to))
}

func (r *SQLiteRepository) ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, expensesBetweenSQL, stamp(from), stamp(to))
	if err != nil {
		return nil, fmt.Errorf("query expenses_between: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e               core.Expense
			amount          int64
			txAt, createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.StoreOrMerchant, &amount, &e.PersonInCharge, &txAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = fromCents(amount)
		if e.TransactionAt, err = parseStamp(txAt); err != nil {
			return nil, fmt.Errorf("expense %d transaction_datetime: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseStamp(createdAt); err != nil {
			return nil, fmt.Errorf("expense %d created_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	slog.DebugContext(ctx, "Loaded expenses", "from", stamp(from), "to", stamp(to), "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "sum_expenses", sumExpensesSQL, stamp(from), stamp(to))
}

func (r *SQLiteRepository) ReceivablesCreatedBetween(ctx context.Context, from, to time.Time) ([]core.Receivable, error) {
	return r.receivables(ctx, "receivables_created_between", receivablesCreatedBetweenSQL, stamp(from), stamp(to))
}

func (r *SQLiteRepository) OutstandingReceivables(ctx context.Context, asOf time.Time) ([]core.Receivable, error) {
	return r.receivables(ctx, "outstanding_receivables", outstandingReceivablesSQL, stamp(asOf))
}

func (r *SQLiteRepository) SumReceivablesCreated(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "sum_receivables_created", sumReceivablesCreatedSQL, stamp(from), stamp(to))
}

func (r *SQLiteRepository) SumOutstanding(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "sum_outstanding", sumOutstandingSQL, stamp(asOf))
}

func (r *SQLiteRepository) SumPaidReceivables(ctx context.Context, from, to core.Date) (decimal.Decimal, error) {
	return r.sum(ctx, "sum_paid_receivables", sumPaidReceivablesSQL, from.String(), to.String())
}

func (r *SQLiteRepository) receivables(ctx context.Context, name, query string, args ...any) ([]core.Receivable, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	var out []core.Receivable
	for rows.Next() {
		var (
			rec             core.Receivable
			amount, paid    int64
			isPaid          int64
			paidOn          sql.NullString
			txAt, createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.ClientName, &rec.Affiliation, &rec.ReferenceNumber, &amount, &paid,
			&isPaid, &paidOn, &txAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan receivable: %w", err)
		}
		rec.Amount, rec.AmountPaid = fromCents(amount), fromCents(paid)
		rec.IsPaid = isPaid != 0
		if paidOn.Valid && paidOn.String != "" {
			d, err := core.ParseDate(paidOn.String)
			if err != nil {
				return nil, fmt.Errorf("receivable %d date_of_payment: %w", rec.ID, err)
			}
			rec.DateOfPayment = &d
		}
		if rec.TransactionAt, err = parseStamp(txAt); err != nil {
			return nil, fmt.Errorf("receivable %d transaction_datetime: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = parseStamp(createdAt); err != nil {
			return nil, fmt.Errorf("receivable %d created_at: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}

	slog.DebugContext(ctx, "Loaded receivables", "query", name, "count", len(out))
	return out, nil
}

func (r *SQLiteRepository) sum(ctx context.Context, name, query string, args ...any) (decimal.Decimal, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("query %s: %w", name, err)
	}
	return fromCents(total), nil
}

func stamp(t time.Time) string {
	return t.Format(core.DateTimeLayout)
}

func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(core.DateTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(core.DateLayout, s)
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
