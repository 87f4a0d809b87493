// Package layout computes table column widths that fit the printable width.
package layout

import (
	"strings"

	"rcrao/internal/core"
)

const (
	DefaultPadding    = 6.0
	DefaultSampleRows = 20
)

// Alignment is a cell alignment code understood by the document surface.
type Alignment string

const (
	AlignLeft   Alignment = "L"
	AlignCenter Alignment = "C"
	AlignRight  Alignment = "R"
)

// Measurer returns the rendered width of a string in the current font.
type Measurer interface {
	StringWidth(s string) float64
}

// MeasureFunc adapts a plain function to Measurer.
type MeasureFunc func(s string) float64

func (f MeasureFunc) StringWidth(s string) float64 { return f(s) }

// Balancer sizes columns from the header and a sample of body rows, then
// scales them so they sum to the available width.
type Balancer struct {
	Padding    float64
	SampleRows int
}

// NewBalancer returns a balancer with the default padding and sample size.
func NewBalancer() Balancer {
	return Balancer{Padding: DefaultPadding, SampleRows: DefaultSampleRows}
}

// ComputeWidths returns one width per header. Each column demands its header
// width plus padding, raised to the widest sampled cell plus padding. Demands
// are then scaled proportionally and the last column absorbs any floating
// point remainder so the widths sum exactly to available.
func (b Balancer) ComputeWidths(m Measurer, headers []string, rows [][]string, available float64) ([]float64, error) {
	if len(headers) == 0 {
		return nil, &core.LayoutError{Reason: "table has no columns"}
	}
	if available <= 0 {
		return nil, &core.LayoutError{Reason: "no printable width available"}
	}

	demand := make([]float64, len(headers))
	for i, h := range headers {
		demand[i] = m.StringWidth(h) + b.Padding
	}

	sample := rows
	if b.SampleRows >= 0 && len(sample) > b.SampleRows {
		sample = sample[:b.SampleRows]
	}
	for _, row := range sample {
		for i := range demand {
			if i >= len(row) {
				break
			}
			if w := m.StringWidth(row[i]) + b.Padding; w > demand[i] {
				demand[i] = w
			}
		}
	}

	var total float64
	for _, d := range demand {
		total += d
	}
	if total <= 0 {
		return nil, &core.LayoutError{Reason: "columns have zero total width"}
	}

	widths := make([]float64, len(demand))
	var used float64
	for i := 0; i < len(demand)-1; i++ {
		widths[i] = demand[i] / total * available
		used += widths[i]
	}
	widths[len(widths)-1] = available - used
	return widths, nil
}

// Align returns right alignment for cells holding a number once currency
// symbols, thousands separators and spaces are stripped.
func Align(value string) Alignment {
	if strings.TrimSpace(value) == "" {
		return AlignLeft
	}
	if core.IsNumeric(value) {
		return AlignRight
	}
	return AlignLeft
}
