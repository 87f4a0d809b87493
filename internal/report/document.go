package report

import (
	"rcrao/internal/core"
	"rcrao/internal/layout"
	"rcrao/internal/period"

	"github.com/shopspring/decimal"
)

// Labels printed next to totals and in summary blocks.
const (
	LabelTotalAmount             = "Total Amount"
	LabelTotalCashReceived       = "Total Cash Received"
	LabelTotalExpenses           = "Total Expenses"
	LabelTotalAdded              = "Total Added"
	LabelTotalOutstandingBalance = "Total Outstanding Balance"

	LabelCashCollected       = "Collections (Cash Received)"
	LabelReceivablePayments  = "Receivable Payments (Estimated*)"
	LabelTotalInflows        = "TOTAL INFLOWS"
	LabelTotalExpensesPaid   = "Total Expenses Paid"
	LabelTotalOutflows       = "TOTAL OUTFLOWS"
	LabelNewReceivables      = "New Receivables Added"
	LabelTotalOutstandingEnd = "TOTAL OUTSTANDING (End of Period)"
	LabelNetCashFlow         = "NET CASH FLOW"
)

const (
	PlaceholderCollections = "No collection data found."
	PlaceholderExpenses    = "No expense data found."
	PlaceholderAdded       = "No new receivables added."
	PlaceholderOutstanding = "No outstanding receivables found."

	InvalidSelectionText = "Invalid Report Type Selected."

	EstimatedInflowNote = "*Receivable Payments are estimated based on items marked as fully paid " +
		"within the period using their date_of_payment. Actual cash inflow timing might differ " +
		"if multiple payments were made."
)

// Section is one drawable part of a document.
type Section interface {
	isSection()
}

// Line is a rendered label/value pair.
type Line struct {
	Label string
	Value string
}

// TableSection is a titled table with right-aligned total lines below it.
// An empty table draws Placeholder instead.
type TableSection struct {
	Title            string
	Headers          []string
	Rows             [][]string
	Placeholder      string
	PlaceholderAlign layout.Alignment
	Totals           []Line
}

// BlockSection is a key/value summary block.
type BlockSection struct {
	Title string
	Items []Line
}

// NoteSection is an italic footnote.
type NoteSection struct {
	Text string
}

// TextSection is a single centred line.
type TextSection struct {
	Text string
}

func (TableSection) isSection() {}
func (BlockSection) isSection() {}
func (NoteSection) isSection()  {}
func (TextSection) isSection()  {}

// Document is everything the composer needs to draw one report.
type Document struct {
	Category    core.Category
	PeriodKind  core.PeriodKind
	Title       string
	PeriodLabel string
	Sections    []Section
}

// Formatter renders an amount for display.
type Formatter func(decimal.Decimal) string

// CurrencyFormatter formats amounts with the grapheme of an ISO currency code.
func CurrencyFormatter(currency string) Formatter {
	return func(d decimal.Decimal) string {
		return core.FormatAmount(d, currency)
	}
}

// Present lays out a dataset as document sections.
func Present(ds Dataset, p period.Resolved, format Formatter) Document {
	doc := Document{
		Category:    ds.Category(),
		PeriodKind:  p.Kind,
		Title:       ds.Category().Title(),
		PeriodLabel: p.Label,
	}

	switch d := ds.(type) {
	case CollectionsDataset:
		doc.Sections = presentCollections(d, format)
	case *CollectionsDataset:
		doc.Sections = presentCollections(*d, format)
	case ExpensesDataset:
		doc.Sections = presentExpenses(d, format)
	case *ExpensesDataset:
		doc.Sections = presentExpenses(*d, format)
	case ReceivablesDataset:
		doc.Sections = presentReceivables(d, format)
	case *ReceivablesDataset:
		doc.Sections = presentReceivables(*d, format)
	case SummaryDataset:
		doc.Sections = presentSummary(d, format)
	case *SummaryDataset:
		doc.Sections = presentSummary(*d, format)
	}
	return doc
}

// InvalidDocument is drawn when the requested category is not supported. It
// has no category, so its filename carries only the period.
func InvalidDocument(p period.Resolved) Document {
	return Document{
		PeriodKind:  p.Kind,
		PeriodLabel: p.Label,
		Sections:    []Section{TextSection{Text: InvalidSelectionText}},
	}
}

func presentCollections(d CollectionsDataset, format Formatter) []Section {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, []string{
			r.Date.String(),
			r.ClientName,
			r.ReferenceNumber,
			format(r.Amount),
			format(r.Received),
			format(r.Unpaid),
			r.ModeOfPayment,
			r.PersonInCharge,
		})
	}
	return []Section{TableSection{
		Headers:          []string{"Date", "Client", "Ref #", "Amount", "Received", "Unpaid", "Mode", "In-Charge"},
		Rows:             rows,
		Placeholder:      PlaceholderCollections,
		PlaceholderAlign: layout.AlignCenter,
		Totals:           lines(d.Totals(), format),
	}}
}

func presentExpenses(d ExpensesDataset, format Formatter) []Section {
	rows := make([][]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, []string{
			r.Date.String(),
			r.Description,
			r.StoreOrMerchant,
			format(r.Amount),
			r.PersonInCharge,
		})
	}
	return []Section{TableSection{
		Headers:          []string{"Date", "Expense", "Store/Merchant", "Amount", "In-Charge"},
		Rows:             rows,
		Placeholder:      PlaceholderExpenses,
		PlaceholderAlign: layout.AlignCenter,
		Totals:           lines(d.Totals(), format),
	}}
}

func presentReceivables(d ReceivablesDataset, format Formatter) []Section {
	added := make([][]string, 0, len(d.Added))
	for _, r := range d.Added {
		added = append(added, []string{
			r.DateAdded.String(),
			r.ClientName,
			r.ReferenceNumber,
			format(r.Amount),
		})
	}
	outstanding := make([][]string, 0, len(d.Outstanding))
	for _, r := range d.Outstanding {
		outstanding = append(outstanding, []string{
			r.ClientName,
			r.ReferenceNumber,
			format(r.Amount),
			format(r.AmountPaid),
			format(r.Balance),
		})
	}

	return []Section{
		TableSection{
			Title:            "Receivables Added During Period",
			Headers:          []string{"Date Added", "Client", "Ref #", "Amount"},
			Rows:             added,
			Placeholder:      PlaceholderAdded,
			PlaceholderAlign: layout.AlignLeft,
			Totals:           []Line{{Label: LabelTotalAdded, Value: format(d.TotalAdded)}},
		},
		TableSection{
			Title:            "Outstanding Receivables (As of " + d.AsOf.Format("Jan 02, 2006") + ")",
			Headers:          []string{"Client", "Ref #", "Total Amount", "Amount Paid", "Outstanding Balance"},
			Rows:             outstanding,
			Placeholder:      PlaceholderOutstanding,
			PlaceholderAlign: layout.AlignLeft,
			Totals:           []Line{{Label: LabelTotalOutstandingBalance, Value: format(d.TotalOutstanding)}},
		},
	}
}

func presentSummary(d SummaryDataset, format Formatter) []Section {
	block := func(title string, items ...LabeledAmount) BlockSection {
		return BlockSection{Title: title, Items: lines(items, format)}
	}
	return []Section{
		block("Income / Inflows (Period)",
			LabeledAmount{LabelCashCollected, d.CashCollected},
			LabeledAmount{LabelReceivablePayments, d.EstimatedReceivablePayments},
			LabeledAmount{LabelTotalInflows, d.TotalInflows}),
		block("Expenses / Outflows (Period)",
			LabeledAmount{LabelTotalExpensesPaid, d.TotalExpenses},
			LabeledAmount{LabelTotalOutflows, d.TotalOutflows}),
		block("Receivables Activity (Period)",
			LabeledAmount{LabelNewReceivables, d.ReceivablesAdded},
			LabeledAmount{LabelTotalOutstandingEnd, d.OutstandingAtEnd}),
		block("Period Summary",
			LabeledAmount{"Total Inflows", d.TotalInflows},
			LabeledAmount{"Total Outflows", d.TotalOutflows},
			LabeledAmount{LabelNetCashFlow, d.Net}),
		NoteSection{Text: EstimatedInflowNote},
	}
}

func lines(amounts []LabeledAmount, format Formatter) []Line {
	out := make([]Line, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, Line{Label: a.Label, Value: format(a.Value)})
	}
	return out
}
