package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"rcrao/internal/core"
)

// The report engine only reads. These inserts back the seed command and
// repository tests.

func (r *SQLiteRepository) InsertCollection(ctx context.Context, c core.Collection) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO collections
    (client_name, affiliation, reference_number, amount_cents, cash_received_cents,
     mode_of_payment, person_in_charge, transaction_datetime, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClientName, c.Affiliation, c.ReferenceNumber, toCents(c.Amount), toCents(c.CashReceived),
		c.ModeOfPayment, c.PersonInCharge, stamp(c.TransactionAt), stamp(createdOrNow(c.CreatedAt, c.TransactionAt)))
	if err != nil {
		return 0, fmt.Errorf("insert collection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("collection id: %w", err)
	}

	slog.InfoContext(ctx, "Collection saved to SQLite",
		"id", id,
		"client", c.ClientName,
		"amount", c.Amount.String(),
		"transaction_datetime", stamp(c.TransactionAt))

	return id, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO expenses
    (expense, store_merchant, amount_cents, person_in_charge, transaction_datetime, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		e.Description, e.StoreOrMerchant, toCents(e.Amount), e.PersonInCharge,
		stamp(e.TransactionAt), stamp(createdOrNow(e.CreatedAt, e.TransactionAt)))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount", e.Amount.String(),
		"transaction_datetime", stamp(e.TransactionAt))

	return id, nil
}

func (r *SQLiteRepository) InsertReceivable(ctx context.Context, rec core.Receivable) (int64, error) {
	var paidOn sql.NullString
	if rec.DateOfPayment != nil {
		paidOn = sql.NullString{String: rec.DateOfPayment.String(), Valid: true}
	}
	isPaid := 0
	if rec.IsPaid {
		isPaid = 1
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO receivables
    (client_name, affiliation, reference_number, amount_cents, amount_paid_cents,
     is_paid, date_of_payment, transaction_datetime, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ClientName, rec.Affiliation, rec.ReferenceNumber, toCents(rec.Amount), toCents(rec.AmountPaid),
		isPaid, paidOn, stamp(rec.TransactionAt), stamp(createdOrNow(rec.CreatedAt, rec.TransactionAt)))
	if err != nil {
		return 0, fmt.Errorf("insert receivable: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("receivable id: %w", err)
	}

	slog.InfoContext(ctx, "Receivable saved to SQLite",
		"id", id,
		"client", rec.ClientName,
		"amount", rec.Amount.String(),
		"is_paid", rec.IsPaid)

	return id, nil
}

func createdOrNow(created, fallback time.Time) time.Time {
	if !created.IsZero() {
		return created
	}
	if !fallback.IsZero() {
		return fallback
	}
	return time.Now().UTC()
}
