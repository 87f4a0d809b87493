package composer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"rcrao/internal/core"
	"rcrao/internal/layout"
	"rcrao/internal/report"
)

type cell struct {
	w     float64
	text  string
	align layout.Alignment
	fill  bool
	style string
}

// fakeSurface records drawn cells. Every character is one unit wide.
type fakeSurface struct {
	header, footer func()
	alias          string
	pages          int
	style          string
	cells          []cell
	outputErr      error
}

func (f *fakeSurface) StringWidth(s string) float64 { return float64(len([]rune(s))) }
func (f *fakeSurface) SetHeaderFunc(fn func()) { f.header = fn }
func (f *fakeSurface) SetFooterFunc(fn func()) { f.footer = fn }
func (f *fakeSurface) AliasNbPages(alias string) { f.alias = alias }
func (f *fakeSurface) PageNo() int { return f.pages }
func (f *fakeSurface) ContentWidth() float64 { return 190 }
func (f *fakeSurface) SetFont(style string, _ float64) {
	f.style = style
}
func (f *fakeSurface) SetFillColor(int, int, int) {}
func (f *fakeSurface) SetTextColor(int, int, int) {}
func (f *fakeSurface) SetDrawColor(int, int, int) {}
func (f *fakeSurface) Ln(float64) {}
func (f *fakeSurface) SetY(float64) {}

func (f *fakeSurface) AddPage() {
	if f.pages > 0 && f.footer != nil {
		f.footer()
	}
	f.pages++
	if f.header != nil {
		f.header()
	}
}

func (f *fakeSurface) Cell(w, _ float64, text, _ string, _ int, align layout.Alignment, fill bool) {
	f.cells = append(f.cells, cell{w: w, text: text, align: align, fill: fill, style: f.style})
}

func (f *fakeSurface) MultiCell(w, _ float64, text string, align layout.Alignment) {
	f.cells = append(f.cells, cell{w: w, text: text, align: align, style: f.style})
}

func (f *fakeSurface) Output() ([]byte, error) {
	if f.outputErr != nil {
		return nil, f.outputErr
	}
	if f.footer != nil {
		f.footer()
	}
	var b strings.Builder
	for _, c := range f.cells {
		b.WriteString(strings.ReplaceAll(c.text, f.alias, fmt.Sprint(f.pages)))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func (f *fakeSurface) find(text string) (cell, bool) {
	for _, c := range f.cells {
		if c.text == text {
			return c, true
		}
	}
	return cell{}, false
}

var fixedNow = time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC)

func newTestComposer(s *fakeSurface) *Composer {
	return New(Config{}, func() Surface { return s }, WithClock(func() time.Time { return fixedNow }))
}

func collectionsDoc(rows [][]string) report.Document {
	return report.Document{
		Category:    core.CategoryCollections,
		PeriodKind:  core.Daily,
		Title:       "Collections Report",
		PeriodLabel: "Date: Mar 15, 2024",
		Sections: []report.Section{report.TableSection{
			Headers:     []string{"Date", "Client", "Amount"},
			Rows:        rows,
			Placeholder: report.PlaceholderCollections,
			Totals:      []report.Line{{Label: "Total Amount", Value: "₱1,500.00"}},
		}},
	}
}

func TestCompose_HeaderFooterAndFilename(t *testing.T) {
	s := &fakeSurface{}
	out, err := newTestComposer(s).Compose(collectionsDoc([][]string{
		{"2024-03-15", "Juan", "₱1,000.00"},
		{"2024-03-15", "Maria", "₱500.00"},
	}), Meta{GeneratedBy: "ana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Filename != "RCRAO_Report_collections_daily_20240315.pdf" {
		t.Errorf("filename = %q", out.Filename)
	}
	if out.ContentType != "application/pdf" {
		t.Errorf("content type = %q", out.ContentType)
	}
	if s.alias != "{nb}" {
		t.Errorf("alias = %q", s.alias)
	}
	for _, want := range []string{
		"RCRAO Accounting System",
		"Collections Report",
		"Date: Mar 15, 2024",
		"Generated By: ana on 2024-03-15 17:45",
	} {
		if _, ok := s.find(want); !ok {
			t.Errorf("header line %q not drawn", want)
		}
	}
	if !strings.Contains(string(out.Bytes), "Page 1/1") {
		t.Errorf("footer page count not resolved:\n%s", out.Bytes)
	}
}

func TestCompose_TableLayout(t *testing.T) {
	s := &fakeSurface{}
	_, err := newTestComposer(s).Compose(collectionsDoc([][]string{
		{"2024-03-15", "Juan", "₱1,000.00"},
		{"2024-03-15", "Maria", "₱500.00"},
	}), Meta{GeneratedBy: "ana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var headerSum float64
	for _, h := range []string{"Date", "Client", "Amount"} {
		c, ok := s.find(h)
		if !ok {
			t.Fatalf("header %q not drawn", h)
		}
		if c.style != "B" || !c.fill {
			t.Errorf("header %q should be bold and shaded", h)
		}
		headerSum += c.w
	}
	if diff := headerSum - 190; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("column widths sum to %v, want 190", headerSum)
	}

	juan, _ := s.find("Juan")
	amount, _ := s.find("₱1,000.00")
	if juan.align != layout.AlignLeft || amount.align != layout.AlignRight {
		t.Errorf("alignment: text %s, amount %s", juan.align, amount.align)
	}
	maria, _ := s.find("Maria")
	if juan.fill == maria.fill {
		t.Errorf("body rows should alternate shading")
	}

	total, ok := s.find("Total Amount: ₱1,500.00")
	if !ok || total.align != layout.AlignRight || total.style != "B" {
		t.Errorf("total line = %+v, found %v", total, ok)
	}
	if _, ok := s.find(report.PlaceholderCollections); ok {
		t.Errorf("placeholder drawn for a non-empty table")
	}
}

func TestCompose_EmptyTableDrawsPlaceholder(t *testing.T) {
	s := &fakeSurface{}
	if _, err := newTestComposer(s).Compose(collectionsDoc(nil), Meta{GeneratedBy: "ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.find(report.PlaceholderCollections); !ok {
		t.Errorf("placeholder not drawn")
	}
	if _, ok := s.find("Client"); ok {
		t.Errorf("headers drawn for an empty table")
	}
}

func TestCompose_SummaryEmphasis(t *testing.T) {
	s := &fakeSurface{}
	doc := report.Document{
		Category:   core.CategorySummary,
		PeriodKind: core.Monthly,
		Title:      "Consolidated Financial Summary",
		Sections: []report.Section{
			report.BlockSection{Title: "Period Summary", Items: []report.Line{
				{Label: "Total Inflows", Value: "₱1.00"},
				{Label: "Other", Value: "₱2.00"},
				{Label: "NET CASH FLOW", Value: "₱3.00"},
			}},
			report.NoteSection{Text: report.EstimatedInflowNote},
		},
	}
	if _, err := newTestComposer(s).Compose(doc, Meta{GeneratedBy: "ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		label string
		style string
		fill  bool
	}{
		{"Total Inflows", "B", true},
		{"Other", "", false},
		{"NET CASH FLOW", "B", true},
	}
	for _, tt := range tests {
		c, ok := s.find(tt.label)
		if !ok {
			t.Fatalf("label %q not drawn", tt.label)
		}
		if c.style != tt.style || c.fill != tt.fill {
			t.Errorf("%q: style %q fill %v, want %q %v", tt.label, c.style, c.fill, tt.style, tt.fill)
		}
	}
	note, ok := s.find(report.EstimatedInflowNote)
	if !ok || note.style != "I" {
		t.Errorf("note should be italic, got %+v", note)
	}
}

func TestCompose_LayoutErrorStopsOutput(t *testing.T) {
	s := &fakeSurface{}
	c := New(Config{}, func() Surface { return s },
		WithClock(func() time.Time { return fixedNow }),
		WithBalancer(layout.Balancer{Padding: 0, SampleRows: 20}))
	doc := collectionsDoc([][]string{{"", "", ""}})
	doc.Sections[0] = report.TableSection{Headers: []string{"", ""}, Rows: [][]string{{"", ""}}}

	out, err := c.Compose(doc, Meta{})
	var le *core.LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected LayoutError, got %v", err)
	}
	if out != nil {
		t.Errorf("no output expected on failure")
	}
}

func TestCompose_OutputErrorYieldsNoBytes(t *testing.T) {
	s := &fakeSurface{outputErr: errors.New("font missing")}
	out, err := newTestComposer(s).Compose(collectionsDoc(nil), Meta{})
	if err == nil || out != nil {
		t.Fatalf("expected failure without output, got %v, %v", out, err)
	}
}

func TestCompose_InvalidDocumentFilename(t *testing.T) {
	c := newTestComposer(&fakeSurface{})
	doc := report.Document{PeriodKind: core.Weekly, Sections: []report.Section{report.TextSection{Text: report.InvalidSelectionText}}}
	out, err := c.Compose(doc, Meta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Filename != "RCRAO_Report_weekly_20240315.pdf" {
		t.Errorf("filename = %q", out.Filename)
	}
}

func TestIsEmphasized(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"TOTAL INFLOWS", true},
		{"Total Expenses Paid", true},
		{"NET CASH FLOW", true},
		{"Collections (Cash Received)", false},
		{"New Receivables Added", false},
	}
	for _, tt := range tests {
		if got := IsEmphasized(tt.label); got != tt.want {
			t.Errorf("IsEmphasized(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}
