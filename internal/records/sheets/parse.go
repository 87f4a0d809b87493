package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"rcrao/internal/core"
	"rcrao/internal/records/memory"

	"github.com/shopspring/decimal"
)

// header maps normalized header names to column positions.
type header map[string]int

// normalizeHeader turns "Store / Merchant" into "store_merchant".
func normalizeHeader(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(strings.ToLower(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func newHeader(row []interface{}) header {
	h := make(header, len(row))
	for i, v := range row {
		name := normalizeHeader(toString(v))
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// index returns the first column matching any of names, or -1.
func (h header) index(names ...string) int {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i
		}
	}
	return -1
}

func (h header) require(names ...string) (int, error) {
	i := h.index(names...)
	if i < 0 {
		return -1, fmt.Errorf("missing column %q", names[0])
	}
	return i, nil
}

// row wraps one sheet row with header-based accessors.
type row struct {
	n     int
	cells []interface{}
}

func (r row) str(i int) string {
	return strings.TrimSpace(toString(safeGet(r.cells, i)))
}

func (r row) amount(i int, name string) (decimal.Decimal, error) {
	switch v := safeGet(r.cells, i).(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(v).Round(2), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	s := r.str(i)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("row %d %s: %w", r.n, name, err)
	}
	return d, nil
}

func (r row) timestamp(i int, name string) (time.Time, error) {
	s := r.str(i)
	if s == "" {
		return time.Time{}, fmt.Errorf("row %d %s: empty", r.n, name)
	}
	t, err := memory.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("row %d %s: %w", r.n, name, err)
	}
	return t, nil
}

func (r row) flag(i int) bool {
	switch v := safeGet(r.cells, i).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	b, err := strconv.ParseBool(strings.ToLower(r.str(i)))
	if err == nil {
		return b
	}
	switch strings.ToLower(r.str(i)) {
	case "yes", "y", "paid":
		return true
	}
	return false
}

func (r row) id(i int) int64 {
	if i < 0 {
		return 0
	}
	switch v := safeGet(r.cells, i).(type) {
	case float64:
		return int64(v)
	}
	n, _ := strconv.ParseInt(r.str(i), 10, 64)
	return n
}

func (r row) blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(toString(c)) != "" {
			return false
		}
	}
	return true
}

// rowsOf skips the header and blank rows. IDs default to the sheet row number.
func rowsOf(values [][]interface{}) []row {
	if len(values) < 2 {
		return nil
	}
	out := make([]row, 0, len(values)-1)
	for i, cells := range values[1:] {
		r := row{n: i + 2, cells: cells}
		if r.blank() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseCollections(values [][]interface{}) ([]core.Collection, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	client, err := h.require("client_name", "client")
	if err != nil {
		return nil, err
	}
	amount, err := h.require("amount")
	if err != nil {
		return nil, err
	}
	txAt, err := h.require("transaction_datetime", "transaction_date", "date")
	if err != nil {
		return nil, err
	}
	var (
		id         = h.index("id")
		affil      = h.index("affiliation")
		ref        = h.index("reference_number", "reference_no", "reference")
		cash       = h.index("cash_received")
		mode       = h.index("mode_of_payment", "payment_mode")
		person     = h.index("person_in_charge")
		createdCol = h.index("created_at")
	)

	var out []core.Collection
	for _, r := range rowsOf(values) {
		c := core.Collection{
			ID:              r.id(id),
			ClientName:      r.str(client),
			Affiliation:     r.str(affil),
			ReferenceNumber: r.str(ref),
			ModeOfPayment:   r.str(mode),
			PersonInCharge:  r.str(person),
		}
		if c.ID == 0 {
			c.ID = int64(r.n)
		}
		if c.Amount, err = r.amount(amount, "amount"); err != nil {
			return nil, err
		}
		if c.CashReceived, err = r.amount(cash, "cash_received"); err != nil {
			return nil, err
		}
		if c.TransactionAt, err = r.timestamp(txAt, "transaction_datetime"); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = createdAt(r, createdCol, c.TransactionAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseExpenses(values [][]interface{}) ([]core.Expense, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	desc, err := h.require("expense", "description")
	if err != nil {
		return nil, err
	}
	amount, err := h.require("amount")
	if err != nil {
		return nil, err
	}
	txAt, err := h.require("transaction_datetime", "transaction_date", "date")
	if err != nil {
		return nil, err
	}
	var (
		id         = h.index("id")
		store      = h.index("store_merchant", "store", "merchant")
		person     = h.index("person_in_charge")
		createdCol = h.index("created_at")
	)

	var out []core.Expense
	for _, r := range rowsOf(values) {
		e := core.Expense{
			ID:              r.id(id),
			Description:     r.str(desc),
			StoreOrMerchant: r.str(store),
			PersonInCharge:  r.str(person),
		}
		if e.ID == 0 {
			e.ID = int64(r.n)
		}
		if e.Amount, err = r.amount(amount, "amount"); err != nil {
			return nil, err
		}
		if e.TransactionAt, err = r.timestamp(txAt, "transaction_datetime"); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = createdAt(r, createdCol, e.TransactionAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseReceivables(values [][]interface{}) ([]core.Receivable, error) {
	if len(values) == 0 {
		return nil, nil
	}
	h := newHeader(values[0])
	client, err := h.require("client_name", "client")
	if err != nil {
		return nil, err
	}
	amount, err := h.require("amount")
	if err != nil {
		return nil, err
	}
	txAt, err := h.require("transaction_datetime", "transaction_date", "date")
	if err != nil {
		return nil, err
	}
	var (
		id         = h.index("id")
		affil      = h.index("affiliation")
		ref        = h.index("reference_number", "reference_no", "reference")
		paid       = h.index("amount_paid")
		isPaid     = h.index("is_paid", "paid")
		paidOn     = h.index("date_of_payment", "payment_date")
		createdCol = h.index("created_at")
	)

	var out []core.Receivable
	for _, r := range rowsOf(values) {
		rec := core.Receivable{
			ID:              r.id(id),
			ClientName:      r.str(client),
			Affiliation:     r.str(affil),
			ReferenceNumber: r.str(ref),
			IsPaid:          r.flag(isPaid),
		}
		if rec.ID == 0 {
			rec.ID = int64(r.n)
		}
		if rec.Amount, err = r.amount(amount, "amount"); err != nil {
			return nil, err
		}
		if rec.AmountPaid, err = r.amount(paid, "amount_paid"); err != nil {
			return nil, err
		}
		if s := r.str(paidOn); s != "" {
			t, err := memory.ParseTimestamp(s)
			if err != nil {
				return nil, fmt.Errorf("row %d date_of_payment: %w", r.n, err)
			}
			d := core.DateOf(t)
			rec.DateOfPayment = &d
		}
		if rec.TransactionAt, err = r.timestamp(txAt, "transaction_datetime"); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = createdAt(r, createdCol, rec.TransactionAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func createdAt(r row, i int, fallback time.Time) (time.Time, error) {
	if r.str(i) == "" {
		return fallback, nil
	}
	return r.timestamp(i, "created_at")
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func safeGet(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}
