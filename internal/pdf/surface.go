// Package pdf implements the composer surface on top of gofpdf.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"rcrao/internal/composer"
	"rcrao/internal/core"
	"rcrao/internal/layout"

	"github.com/jung-kurt/gofpdf"
)

// Config holds PDF configuration
type Config struct {
	Orientation string  // "P" (portrait) or "L" (landscape)
	Unit        string  // "mm", "pt", "in"
	Size        string  // "A4", "Letter", "Legal"
	FontFamily  string  // core font family
	FontSize    float64 // default font size
	Margins     Margins
	// CreationDate is stamped into the document metadata. Fixing it makes
	// output for identical content byte-identical.
	CreationDate time.Time
	// Uncompressed leaves page streams as plain text.
	Uncompressed bool
}

// Margins defines page margins
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultConfig returns an A4 portrait page with 10mm margins.
func DefaultConfig() Config {
	return Config{
		Orientation: "P",
		Unit:        "mm",
		Size:        "A4",
		FontFamily:  "Arial",
		FontSize:    10,
		Margins: Margins{
			Top:    10,
			Right:  10,
			Bottom: 15,
			Left:   10,
		},
	}
}

// Surface draws on a gofpdf document.
type Surface struct {
	pdf    *gofpdf.Fpdf
	cfg    Config
	size   float64
	toPage func(string) string
}

var _ composer.Surface = (*Surface)(nil)

// New creates a surface with the given configuration.
func New(cfg Config) *Surface {
	def := DefaultConfig()
	if cfg.Orientation == "" {
		cfg.Orientation = def.Orientation
	}
	if cfg.Unit == "" {
		cfg.Unit = def.Unit
	}
	if cfg.Size == "" {
		cfg.Size = def.Size
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = def.FontFamily
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = def.FontSize
	}
	if cfg.Margins == (Margins{}) {
		cfg.Margins = def.Margins
	}

	pdf := gofpdf.New(cfg.Orientation, cfg.Unit, cfg.Size, "")
	pdf.SetMargins(cfg.Margins.Left, cfg.Margins.Top, cfg.Margins.Right)
	pdf.SetAutoPageBreak(true, cfg.Margins.Bottom)
	pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	pdf.SetCatalogSort(true)
	if cfg.Uncompressed {
		pdf.SetCompression(false)
	}
	if !cfg.CreationDate.IsZero() {
		pdf.SetCreationDate(cfg.CreationDate)
	}

	return &Surface{
		pdf:    pdf,
		cfg:    cfg,
		size:   cfg.FontSize,
		toPage: newTranslator(pdf),
	}
}

// Factory returns a constructor producing a fresh surface per document.
// The creation date follows now so repeated documents stay reproducible.
func Factory(cfg Config, now func() time.Time) func() composer.Surface {
	return func() composer.Surface {
		c := cfg
		if now != nil {
			c.CreationDate = now()
		}
		return New(c)
	}
}

// Core fonts are cp1252 and have no peso glyph.
var pesoReplacer = strings.NewReplacer(core.PesoSign, "PHP ")

func newTranslator(pdf *gofpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string {
		return tr(pesoReplacer.Replace(s))
	}
}

func (s *Surface) StringWidth(text string) float64 {
	return s.pdf.GetStringWidth(s.toPage(text))
}

func (s *Surface) SetHeaderFunc(fn func()) { s.pdf.SetHeaderFunc(fn) }

func (s *Surface) SetFooterFunc(fn func()) { s.pdf.SetFooterFunc(fn) }

func (s *Surface) AliasNbPages(alias string) { s.pdf.AliasNbPages(alias) }

func (s *Surface) AddPage() { s.pdf.AddPage() }

func (s *Surface) PageNo() int { return s.pdf.PageNo() }

// ContentWidth is the page width between the left and right margins.
func (s *Surface) ContentWidth() float64 {
	w, _ := s.pdf.GetPageSize()
	left, _, right, _ := s.pdf.GetMargins()
	return w - left - right
}

func (s *Surface) SetFont(style string, size float64) {
	if size == 0 {
		size = s.size
	}
	s.pdf.SetFont(s.cfg.FontFamily, style, size)
}

func (s *Surface) SetFillColor(r, g, b int) { s.pdf.SetFillColor(r, g, b) }

func (s *Surface) SetTextColor(r, g, b int) { s.pdf.SetTextColor(r, g, b) }

func (s *Surface) SetDrawColor(r, g, b int) { s.pdf.SetDrawColor(r, g, b) }

func (s *Surface) Cell(w, h float64, text, border string, ln int, align layout.Alignment, fill bool) {
	s.pdf.CellFormat(w, h, s.toPage(text), border, ln, string(align), fill, 0, "")
}

func (s *Surface) MultiCell(w, h float64, text string, align layout.Alignment) {
	s.pdf.MultiCell(w, h, s.toPage(text), "", string(align), false)
}

func (s *Surface) Ln(h float64) { s.pdf.Ln(h) }

func (s *Surface) SetY(y float64) { s.pdf.SetY(y) }

// Output closes the document and returns its bytes.
func (s *Surface) Output() ([]byte, error) {
	if err := s.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := s.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
