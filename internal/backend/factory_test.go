package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rcrao/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:         "sheets",
		GoogleSpreadsheetID: "sheet-1",
		GoogleExpensesSheet: "Gastos",
		SheetsCacheTTL:      2 * time.Minute,
		DataDir:             "seed",
	}

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SheetsBackend || got.GoogleSpreadsheetID != "sheet-1" || got.GoogleExpensesSheet != "Gastos" {
		t.Errorf("unexpected backend config %+v", got)
	}
	if got.SheetsCacheTTL != 2*time.Minute || got.DataDirectory != "seed" {
		t.Errorf("unexpected backend config %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"memory without dir", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	seed := `[{"id": 1, "expense": "Paper", "store_merchant": "Shop", "amount": "300", "transaction_datetime": "2024-03-15 13:00:00"}]`
	if err := os.WriteFile(filepath.Join(dir, "expenses.json"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("memory backend not ready: %v", err)
	}

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC)
	exps, err := res.Store.ExpensesBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ExpensesBetween() error = %v", err)
	}
	if len(exps) != 1 || exps[0].Description != "Paper" {
		t.Errorf("unexpected expenses %+v", exps)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcrao.db")

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("sqlite backend not ready: %v", err)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}
