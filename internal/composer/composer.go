// Package composer draws report documents onto a page surface.
package composer

import (
	"fmt"
	"strings"
	"time"

	"rcrao/internal/core"
	"rcrao/internal/layout"
	"rcrao/internal/report"
)

// PageCountAlias is replaced by the total page count when the surface is
// finalised.
const PageCountAlias = "{nb}"

const ContentTypePDF = "application/pdf"

// Surface is a page-oriented drawing target. Page breaks are its concern:
// content that would overflow the printable area continues on a new page,
// and the header and footer callbacks run for every page.
type Surface interface {
	layout.Measurer

	SetHeaderFunc(fn func())
	SetFooterFunc(fn func())
	AliasNbPages(alias string)
	AddPage()
	PageNo() int
	ContentWidth() float64

	// SetFont switches style ("", "B", "I") and size of the default family.
	SetFont(style string, size float64)
	SetFillColor(r, g, b int)
	SetTextColor(r, g, b int)
	SetDrawColor(r, g, b int)

	// Cell draws one cell. A zero width extends to the right margin; ln 1
	// moves to the start of the next line, ln 0 to the right of the cell.
	Cell(w, h float64, text, border string, ln int, align layout.Alignment, fill bool)
	MultiCell(w, h float64, text string, align layout.Alignment)
	Ln(h float64)
	SetY(y float64)

	// Output finalises the document. Bytes are only returned when every
	// drawing operation succeeded.
	Output() ([]byte, error)
}

// Meta carries per-request details printed on every page.
type Meta struct {
	GeneratedBy string
}

// Output is a finished document.
type Output struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Config holds the presentation settings of a Composer.
type Config struct {
	OrgName    string
	FilePrefix string
}

// Composer turns report documents into finished files.
type Composer struct {
	cfg        Config
	newSurface func() Surface
	balancer   layout.Balancer
	now        func() time.Time
}

type Option func(*Composer)

// WithClock overrides the clock used for the generation timestamp and the
// filename date.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithBalancer overrides the column width balancer.
func WithBalancer(b layout.Balancer) Option {
	return func(c *Composer) { c.balancer = b }
}

func New(cfg Config, newSurface func() Surface, opts ...Option) *Composer {
	if cfg.OrgName == "" {
		cfg.OrgName = "RCRAO Accounting System"
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "RCRAO_Report"
	}
	c := &Composer{
		cfg:        cfg,
		newSurface: newSurface,
		balancer:   layout.NewBalancer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filename returns <prefix>_<category>_<period kind>_<YYYYMMDD>.pdf. A
// document without category drops that part.
func (c *Composer) Filename(doc report.Document, at time.Time) string {
	parts := []string{c.cfg.FilePrefix}
	if doc.Category != "" {
		parts = append(parts, strings.ToLower(string(doc.Category)))
	}
	parts = append(parts, strings.ToLower(string(doc.PeriodKind)), at.Format("20060102"))
	return strings.Join(parts, "_") + ".pdf"
}

// Compose draws doc on a fresh surface.
func (c *Composer) Compose(doc report.Document, meta Meta) (*Output, error) {
	now := c.now()
	s := c.newSurface()
	d := &drawer{s: s, balancer: c.balancer}

	generated := fmt.Sprintf("Generated By: %s on %s", meta.GeneratedBy, now.Format("2006-01-02 15:04"))

	s.AliasNbPages(PageCountAlias)
	s.SetHeaderFunc(func() {
		s.SetFont("B", 14)
		s.Cell(0, 10, c.cfg.OrgName, "", 1, layout.AlignCenter, false)
		s.SetFont("B", 12)
		s.Cell(0, 10, doc.Title, "", 1, layout.AlignCenter, false)
		s.SetFont("", 10)
		s.Cell(0, 5, doc.PeriodLabel, "", 1, layout.AlignCenter, false)
		s.Cell(0, 5, generated, "", 1, layout.AlignCenter, false)
		s.Ln(5)
	})
	s.SetFooterFunc(func() {
		s.SetY(-15)
		s.SetFont("I", 8)
		s.Cell(0, 10, fmt.Sprintf("%s | Page %d/%s", generated, s.PageNo(), PageCountAlias), "", 0, layout.AlignCenter, false)
	})

	s.AddPage()
	s.SetFont("", 10)

	for _, section := range doc.Sections {
		if err := d.section(section); err != nil {
			return nil, err
		}
	}

	b, err := s.Output()
	if err != nil {
		return nil, fmt.Errorf("finalise document: %w", err)
	}
	return &Output{
		Bytes:       b,
		Filename:    c.Filename(doc, now),
		ContentType: ContentTypePDF,
	}, nil
}

// IsEmphasized reports whether a summary label is drawn bold.
func IsEmphasized(label string) bool {
	upper := strings.ToUpper(label)
	return strings.Contains(upper, "TOTAL") || strings.Contains(upper, "NET")
}

type drawer struct {
	s        Surface
	balancer layout.Balancer
}

func (d *drawer) section(sec report.Section) error {
	switch v := sec.(type) {
	case report.TableSection:
		return d.table(v)
	case report.BlockSection:
		d.block(v)
	case report.NoteSection:
		d.s.Ln(5)
		d.s.SetFont("I", 9)
		d.s.MultiCell(0, 5, v.Text, layout.AlignLeft)
		d.s.SetFont("", 10)
	case report.TextSection:
		d.s.SetFont("", 10)
		d.s.Cell(0, 10, v.Text, "", 1, layout.AlignCenter, false)
	default:
		return &core.LayoutError{Reason: fmt.Sprintf("unknown section %T", sec)}
	}
	return nil
}

func (d *drawer) table(t report.TableSection) error {
	s := d.s
	if t.Title != "" {
		s.SetFont("B", 11)
		s.Cell(0, 8, t.Title, "", 1, layout.AlignLeft, false)
	}

	if len(t.Rows) == 0 {
		align := t.PlaceholderAlign
		if align == "" {
			align = layout.AlignCenter
		}
		s.SetFont("", 10)
		s.Cell(0, 10, t.Placeholder, "", 1, align, false)
		s.Ln(5)
		return nil
	}

	s.SetFillColor(255, 214, 229)
	s.SetTextColor(107, 74, 87)
	s.SetDrawColor(243, 208, 220)
	s.SetFont("B", 10)
	widths, err := d.balancer.ComputeWidths(s, t.Headers, t.Rows, s.ContentWidth())
	if err != nil {
		return err
	}
	for i, h := range t.Headers {
		s.Cell(widths[i], 7, h, "1", 0, layout.AlignCenter, true)
	}
	s.Ln(-1)

	s.SetFont("", 10)
	s.SetTextColor(0, 0, 0)
	s.SetFillColor(255, 240, 246)
	fill := false
	for _, row := range t.Rows {
		for i := range t.Headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			s.Cell(widths[i], 6, cell, "LR", 0, layout.Align(cell), fill)
		}
		s.Ln(-1)
		fill = !fill
	}
	var total float64
	for _, w := range widths {
		total += w
	}
	s.Cell(total, 0, "", "T", 1, layout.AlignLeft, false)

	if len(t.Totals) > 0 {
		s.Ln(3)
		s.SetFont("B", 10)
		for _, line := range t.Totals {
			s.Cell(0, 7, line.Label+": "+line.Value, "", 1, layout.AlignRight, false)
		}
	}
	s.SetFont("", 10)
	s.Ln(5)
	return nil
}

func (d *drawer) block(b report.BlockSection) {
	s := d.s
	s.SetFont("B", 11)
	s.Cell(0, 8, b.Title, "", 1, layout.AlignLeft, false)
	s.SetFillColor(255, 240, 246)
	fill := true
	for _, item := range b.Items {
		if IsEmphasized(item.Label) {
			s.SetFont("B", 10)
		} else {
			s.SetFont("", 10)
		}
		s.Cell(90, 7, item.Label, "LR", 0, layout.AlignLeft, fill)
		s.Cell(40, 7, item.Value, "LR", 1, layout.AlignRight, fill)
		fill = !fill
	}
	s.SetFont("", 10)
	s.Cell(130, 0, "", "T", 1, layout.AlignLeft, false)
	s.Ln(5)
}
