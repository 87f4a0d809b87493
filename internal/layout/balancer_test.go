package layout

import (
	"errors"
	"math"
	"strings"
	"testing"

	"rcrao/internal/core"
)

// one unit per rune keeps expectations easy to compute by hand
var runeWidth = MeasureFunc(func(s string) float64 { return float64(len([]rune(s))) })

func sum(ws []float64) float64 {
	var s float64
	for _, w := range ws {
		s += w
	}
	return s
}

func TestComputeWidthsSumsToAvailable(t *testing.T) {
	cases := []struct {
		name      string
		headers   []string
		rows      [][]string
		available float64
	}{
		{"headers only", []string{"Date", "Client", "Amount"}, nil, 190},
		{"wide rows", []string{"A", "B"}, [][]string{{"a very long client name", "1,500.00"}}, 277},
		{"fractional", []string{"x", "yy", "zzz"}, [][]string{{"1", "2", "3"}}, 100.0 / 3},
		{"single column", []string{"Note"}, nil, 190},
		{"short rows", []string{"A", "B", "C"}, [][]string{{"only one cell"}}, 190},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws, err := NewBalancer().ComputeWidths(runeWidth, tc.headers, tc.rows, tc.available)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if len(ws) != len(tc.headers) {
				t.Fatalf("expected %d widths, got %d", len(tc.headers), len(ws))
			}
			if math.Abs(sum(ws)-tc.available) > 1e-9 {
				t.Fatalf("widths sum to %v, want %v", sum(ws), tc.available)
			}
		})
	}
}

func TestComputeWidthsProportional(t *testing.T) {
	// demands: 4+6=10 and 14+6=20
	ws, err := NewBalancer().ComputeWidths(runeWidth, []string{"Date", "Store/Merchant"}, nil, 300)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(ws[0]-100) > 1e-9 || math.Abs(ws[1]-200) > 1e-9 {
		t.Fatalf("unexpected widths %v", ws)
	}
}

func TestComputeWidthsSamplesFirstRowsOnly(t *testing.T) {
	rows := make([][]string, 0, 25)
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"x", "y"})
	}
	// beyond the sample; must not influence widths
	rows = append(rows, []string{strings.Repeat("w", 200), "y"})

	ws, err := NewBalancer().ComputeWidths(runeWidth, []string{"A", "B"}, rows, 100)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(ws[0]-ws[1]) > 1e-9 {
		t.Fatalf("row 21 leaked into widths: %v", ws)
	}

	rows[19] = []string{strings.Repeat("w", 14), "y"}
	ws, _ = NewBalancer().ComputeWidths(runeWidth, []string{"A", "B"}, rows, 100)
	if ws[0] <= ws[1] {
		t.Fatalf("row 20 should widen the first column: %v", ws)
	}
}

func TestComputeWidthsLayoutErrors(t *testing.T) {
	zero := MeasureFunc(func(string) float64 { return 0 })
	cases := []struct {
		name      string
		b         Balancer
		m         Measurer
		headers   []string
		available float64
	}{
		{"no columns", NewBalancer(), runeWidth, nil, 190},
		{"zero demand", Balancer{Padding: 0, SampleRows: 20}, zero, []string{"A", "B"}, 190},
		{"no width", NewBalancer(), runeWidth, []string{"A"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.b.ComputeWidths(tc.m, tc.headers, nil, tc.available)
			var le *core.LayoutError
			if !errors.As(err, &le) {
				t.Fatalf("expected LayoutError, got %v", err)
			}
		})
	}
}

func TestAlign(t *testing.T) {
	cases := []struct {
		in   string
		want Alignment
	}{
		{"1,500.00", AlignRight},
		{"₱ 1,500.00", AlignRight},
		{"$1,100.00", AlignRight},
		{"€1,100.00", AlignRight},
		{"£1,100.00", AlignRight},
		{"-$400.00", AlignRight},
		{"PHP 1,100.00", AlignRight},
		{"1,100.00 USD", AlignRight},
		{"-400.00", AlignRight},
		{"12", AlignRight},
		{"Cash", AlignLeft},
		{"Mar 15, 2024", AlignLeft},
		{"REF-001", AlignLeft},
		{"ABC100", AlignLeft},
		{"", AlignLeft},
	}
	for _, tc := range cases {
		if got := Align(tc.in); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.want, got)
		}
	}
}
