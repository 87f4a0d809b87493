package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"rcrao/internal/core"
	"rcrao/internal/records"

	"github.com/shopspring/decimal"
)

// Seed file names looked up by NewFromFiles.
const (
	CollectionsFile = "collections.json"
	ExpensesFile    = "expenses.json"
	ReceivablesFile = "receivables.json"
)

var _ records.Store = (*Store)(nil)

// Store keeps records in memory and answers the same queries as the SQLite
// repository.
type Store struct {
	mu          sync.RWMutex
	collections []core.Collection
	expenses    []core.Expense
	receivables []core.Receivable
}

func New() *Store {
	return &Store{}
}

// NewFromFiles seeds a store from JSON files in base. Missing files leave the
// corresponding table empty.
func NewFromFiles(base string) (*Store, error) {
	s := New()

	var cols []collectionSeed
	if err := readJSON(filepath.Join(base, CollectionsFile), &cols); err != nil {
		return nil, err
	}
	for _, c := range cols {
		rec, err := c.record()
		if err != nil {
			return nil, fmt.Errorf("%s id=%d: %w", CollectionsFile, c.ID, err)
		}
		s.AddCollection(rec)
	}

	var exps []expenseSeed
	if err := readJSON(filepath.Join(base, ExpensesFile), &exps); err != nil {
		return nil, err
	}
	for _, e := range exps {
		rec, err := e.record()
		if err != nil {
			return nil, fmt.Errorf("%s id=%d: %w", ExpensesFile, e.ID, err)
		}
		s.AddExpense(rec)
	}

	var recs []receivableSeed
	if err := readJSON(filepath.Join(base, ReceivablesFile), &recs); err != nil {
		return nil, err
	}
	for _, r := range recs {
		rec, err := r.record()
		if err != nil {
			return nil, fmt.Errorf("%s id=%d: %w", ReceivablesFile, r.ID, err)
		}
		s.AddReceivable(rec)
	}
	return s, nil
}

func (s *Store) AddCollection(c core.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = int64(len(s.collections) + 1)
	}
	s.collections = append(s.collections, c)
}

func (s *Store) AddExpense(e core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = int64(len(s.expenses) + 1)
	}
	s.expenses = append(s.expenses, e)
}

func (s *Store) AddReceivable(r core.Receivable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = int64(len(s.receivables) + 1)
	}
	s.receivables = append(s.receivables, r)
}

// Replace swaps every table at once.
func (s *Store) Replace(cols []core.Collection, exps []core.Expense, recs []core.Receivable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = append([]core.Collection(nil), cols...)
	s.expenses = append([]core.Expense(nil), exps...)
	s.receivables = append([]core.Receivable(nil), recs...)
}

// Snapshot returns copies of every table in insertion order.
func (s *Store) Snapshot() ([]core.Collection, []core.Expense, []core.Receivable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Collection(nil), s.collections...),
		append([]core.Expense(nil), s.expenses...),
		append([]core.Receivable(nil), s.receivables...)
}

// Counts returns the number of rows per table.
func (s *Store) Counts() (collections, expenses, receivables int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections), len(s.expenses), len(s.receivables)
}

func (s *Store) CollectionsBetween(ctx context.Context, from, to time.Time) ([]core.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Collection
	for _, c := range s.collections {
		if within(c.TransactionAt, from, to) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) SumCashReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	cols, err := s.CollectionsBetween(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	amounts := make([]decimal.Decimal, len(cols))
	for i, c := range cols {
		amounts[i] = c.CashReceived
	}
	return core.SumAmounts(amounts...), nil
}

func (s *Store) ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if within(e.TransactionAt, from, to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) SumExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	exps, err := s.ExpensesBetween(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	amounts := make([]decimal.Decimal, len(exps))
	for i, e := range exps {
		amounts[i] = e.Amount
	}
	return core.SumAmounts(amounts...), nil
}

func (s *Store) ReceivablesCreatedBetween(ctx context.Context, from, to time.Time) ([]core.Receivable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Receivable
	for _, r := range s.receivables {
		if within(r.CreatedAt, from, to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdBefore(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) OutstandingReceivables(ctx context.Context, asOf time.Time) ([]core.Receivable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Receivable
	for _, r := range s.receivables {
		if !r.IsPaid && !r.CreatedAt.After(asOf) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ClientName != out[j].ClientName {
			return out[i].ClientName < out[j].ClientName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SumReceivablesCreated(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	recs, err := s.ReceivablesCreatedBetween(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	amounts := make([]decimal.Decimal, len(recs))
	for i, r := range recs {
		amounts[i] = r.Amount
	}
	return core.SumAmounts(amounts...), nil
}

func (s *Store) SumOutstanding(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	recs, err := s.OutstandingReceivables(ctx, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	amounts := make([]decimal.Decimal, len(recs))
	for i, r := range recs {
		amounts[i] = r.Balance()
	}
	return core.SumAmounts(amounts...), nil
}

func (s *Store) SumPaidReceivables(ctx context.Context, from, to core.Date) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, r := range s.receivables {
		if !r.IsPaid || r.DateOfPayment == nil {
			continue
		}
		d := *r.DateOfPayment
		if d.Before(from.Time) || d.After(to.Time) {
			continue
		}
		total = total.Add(r.AmountPaid)
	}
	return total, nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func createdBefore(a, b time.Time, idA, idB int64) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
