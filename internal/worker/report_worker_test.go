package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rcrao/internal/amqp"
	"rcrao/internal/composer"
	"rcrao/internal/core"
	"rcrao/internal/services"
)

type fakeGenerator struct {
	out  *composer.Output
	err  error
	reqs []services.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req services.Request) (*composer.Output, error) {
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

func message() *amqp.ReportRequestMessage {
	return &amqp.ReportRequestMessage{
		ID:          "req_1",
		Category:    "expenses",
		PeriodKind:  "daily",
		Selector:    "2024-03-15",
		GeneratedBy: "Ana",
	}
}

func TestHandleRequest_WritesReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	gen := &fakeGenerator{out: &composer.Output{
		Bytes:    []byte("%PDF-1.3 test"),
		Filename: "RCRAO_Report_expenses_daily_20240315.pdf",
	}}
	w := NewReportWorker(gen, dir)

	if err := w.HandleRequest(context.Background(), message()); err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}

	if len(gen.reqs) != 1 || gen.reqs[0].GeneratedBy != "Ana" || gen.reqs[0].ID != "req_1" {
		t.Errorf("unexpected generator requests %+v", gen.reqs)
	}
	data, err := os.ReadFile(filepath.Join(dir, "RCRAO_Report_expenses_daily_20240315.pdf"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if string(data) != "%PDF-1.3 test" {
		t.Errorf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestHandleRequest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantDrop bool
	}{
		{
			name:     "invalid period is dropped",
			err:      &core.GenerationError{Stage: core.StageResolve, Err: &core.InvalidPeriodError{Value: "2024-13"}},
			wantDrop: true,
		},
		{
			name:     "layout error is dropped",
			err:      &core.GenerationError{Stage: core.StageCompose, Err: &core.LayoutError{Reason: "no columns"}},
			wantDrop: true,
		},
		{
			name:     "data unavailable is retried",
			err:      &core.GenerationError{Stage: core.StageAggregate, Err: &core.DataUnavailableError{Err: errors.New("locked")}},
			wantDrop: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := NewReportWorker(&fakeGenerator{err: tt.err}, dir)

			err := w.HandleRequest(context.Background(), message())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := amqp.IsDrop(err); got != tt.wantDrop {
				t.Errorf("IsDrop() = %v, want %v", got, tt.wantDrop)
			}

			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("no file should be written on failure, found %d", len(entries))
			}
		})
	}
}

func TestHandleRequest_FilenameCannotEscapeOutputDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	gen := &fakeGenerator{out: &composer.Output{Bytes: []byte("x"), Filename: "../escape.pdf"}}

	if err := NewReportWorker(gen, dir).HandleRequest(context.Background(), message()); err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.pdf")); err != nil {
		t.Errorf("report should land inside the output dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.pdf")); err == nil {
		t.Error("report escaped the output dir")
	}
}
