package report

import (
	"context"
	"log/slog"

	"rcrao/internal/core"
	"rcrao/internal/period"
	"rcrao/internal/records"

	"github.com/shopspring/decimal"
)

// Aggregator builds the dataset of one category for a resolved period.
type Aggregator interface {
	Aggregate(ctx context.Context, category core.Category, p period.Resolved) (Dataset, error)
}

// StoreAggregator aggregates from a records.Store.
type StoreAggregator struct {
	store records.Store
}

var _ Aggregator = (*StoreAggregator)(nil)

func NewStoreAggregator(store records.Store) *StoreAggregator {
	return &StoreAggregator{store: store}
}

// Aggregate dispatches on category. Store failures are returned as
// *core.DataUnavailableError; an empty window yields an empty dataset.
func (a *StoreAggregator) Aggregate(ctx context.Context, category core.Category, p period.Resolved) (Dataset, error) {
	var (
		ds  Dataset
		err error
	)
	switch category {
	case core.CategoryCollections:
		ds, err = a.collections(ctx, p)
	case core.CategoryExpenses:
		ds, err = a.expenses(ctx, p)
	case core.CategoryReceivables:
		ds, err = a.receivables(ctx, p)
	case core.CategorySummary:
		ds, err = a.summary(ctx, p)
	default:
		return nil, &core.UnsupportedCategoryError{Category: string(category)}
	}
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Aggregated report dataset",
		"category", category,
		"period_kind", p.Kind,
		"selector", p.Selector)
	return ds, nil
}

func (a *StoreAggregator) collections(ctx context.Context, p period.Resolved) (CollectionsDataset, error) {
	recs, err := a.store.CollectionsBetween(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return CollectionsDataset{}, unavailable(core.CategoryCollections, "collections_between", err)
	}

	ds := CollectionsDataset{
		Rows:          make([]CollectionRow, 0, len(recs)),
		TotalAmount:   decimal.Zero,
		TotalReceived: decimal.Zero,
	}
	for _, c := range recs {
		ds.Rows = append(ds.Rows, CollectionRow{
			Date:            core.DateOf(c.CreatedAt),
			ClientName:      c.ClientName,
			Affiliation:     c.Affiliation,
			ReferenceNumber: c.ReferenceNumber,
			Amount:          c.Amount,
			Received:        c.CashReceived,
			Unpaid:          c.Unpaid(),
			ModeOfPayment:   c.ModeOfPayment,
			PersonInCharge:  c.PersonInCharge,
		})
		ds.TotalAmount = ds.TotalAmount.Add(c.Amount)
		ds.TotalReceived = ds.TotalReceived.Add(c.CashReceived)
	}
	return ds, nil
}

func (a *StoreAggregator) expenses(ctx context.Context, p period.Resolved) (ExpensesDataset, error) {
	recs, err := a.store.ExpensesBetween(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return ExpensesDataset{}, unavailable(core.CategoryExpenses, "expenses_between", err)
	}

	ds := ExpensesDataset{Rows: make([]ExpenseRow, 0, len(recs)), Total: decimal.Zero}
	for _, e := range recs {
		ds.Rows = append(ds.Rows, ExpenseRow{
			Date:            core.DateOf(e.CreatedAt),
			Description:     e.Description,
			StoreOrMerchant: e.StoreOrMerchant,
			Amount:          e.Amount,
			PersonInCharge:  e.PersonInCharge,
		})
		ds.Total = ds.Total.Add(e.Amount)
	}
	return ds, nil
}

func (a *StoreAggregator) receivables(ctx context.Context, p period.Resolved) (ReceivablesDataset, error) {
	added, err := a.store.ReceivablesCreatedBetween(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return ReceivablesDataset{}, unavailable(core.CategoryReceivables, "receivables_created_between", err)
	}
	outstanding, err := a.store.OutstandingReceivables(ctx, p.EndInstant)
	if err != nil {
		return ReceivablesDataset{}, unavailable(core.CategoryReceivables, "outstanding_receivables", err)
	}

	ds := ReceivablesDataset{
		AsOf:             p.EndInstant,
		Added:            make([]ReceivableAddedRow, 0, len(added)),
		TotalAdded:       decimal.Zero,
		Outstanding:      make([]OutstandingRow, 0, len(outstanding)),
		TotalOutstanding: decimal.Zero,
	}
	for _, r := range added {
		ds.Added = append(ds.Added, ReceivableAddedRow{
			DateAdded:       core.DateOf(r.CreatedAt),
			ClientName:      r.ClientName,
			Affiliation:     r.Affiliation,
			ReferenceNumber: r.ReferenceNumber,
			Amount:          r.Amount,
		})
		ds.TotalAdded = ds.TotalAdded.Add(r.Amount)
	}
	for _, r := range outstanding {
		bal := r.Balance()
		ds.Outstanding = append(ds.Outstanding, OutstandingRow{
			ClientName:      r.ClientName,
			ReferenceNumber: r.ReferenceNumber,
			Amount:          r.Amount,
			AmountPaid:      r.AmountPaid,
			Balance:         bal,
		})
		ds.TotalOutstanding = ds.TotalOutstanding.Add(bal)
	}
	return ds, nil
}

func (a *StoreAggregator) summary(ctx context.Context, p period.Resolved) (SummaryDataset, error) {
	cash, err := a.store.SumCashReceived(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return SummaryDataset{}, unavailable(core.CategorySummary, "sum_cash_received", err)
	}
	paid, err := a.store.SumPaidReceivables(ctx, p.StartDate, p.EndDate)
	if err != nil {
		return SummaryDataset{}, unavailable(core.CategorySummary, "sum_paid_receivables", err)
	}
	expenses, err := a.store.SumExpenses(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return SummaryDataset{}, unavailable(core.CategorySummary, "sum_expenses", err)
	}
	added, err := a.store.SumReceivablesCreated(ctx, p.StartInstant, p.EndInstant)
	if err != nil {
		return SummaryDataset{}, unavailable(core.CategorySummary, "sum_receivables_created", err)
	}
	outstanding, err := a.store.SumOutstanding(ctx, p.EndInstant)
	if err != nil {
		return SummaryDataset{}, unavailable(core.CategorySummary, "sum_outstanding", err)
	}

	inflows := cash.Add(paid)
	return SummaryDataset{
		CashCollected:               cash,
		EstimatedReceivablePayments: paid,
		TotalInflows:                inflows,
		TotalExpenses:               expenses,
		TotalOutflows:               expenses,
		ReceivablesAdded:            added,
		OutstandingAtEnd:            outstanding,
		Net:                         inflows.Sub(expenses),
	}, nil
}

func unavailable(category core.Category, query string, err error) error {
	return &core.DataUnavailableError{Category: category, Query: query, Err: err}
}
