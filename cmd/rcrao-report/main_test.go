package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rcrao/internal/records/memory"
	"rcrao/internal/storage"
)

func writeSeeds(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		memory.CollectionsFile: `[{"id":1,"client_name":"Juan","reference_number":"OR-1","amount":"1000.00","cash_received":"600","mode_of_payment":"Cash","person_in_charge":"Ana","transaction_datetime":"2024-03-15 10:00:00"}]`,
		memory.ExpensesFile:    `[{"id":1,"expense":"Ink","store_merchant":"Shop","amount":"250.25","person_in_charge":"Ana","transaction_datetime":"2024-03-15 09:00:00"}]`,
		memory.ReceivablesFile: `[{"id":1,"client_name":"Maria","amount":"300","amount_paid":"0","transaction_datetime":"2024-03-01 08:00:00"}]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	t.Setenv("REPORT_FILE_PREFIX", "RCRAO_Report")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateWritesPDF(t *testing.T) {
	setBaseEnv(t)
	outDir := t.TempDir()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", writeSeeds(t))
	t.Setenv("REPORT_OUTPUT_DIR", outDir)

	out, err := execute(t, "generate", "--type", "collections", "--period", "daily", "--selector", "2024-03-15")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "RCRAO_Report_collections_daily_*.pdf"))
	if len(matches) != 1 {
		t.Fatalf("expected one report in %s, got %v", outDir, matches)
	}
	if !strings.Contains(out, matches[0]) {
		t.Errorf("output %q does not name %s", out, matches[0])
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("report is not a PDF")
	}
}

func TestGenerateOutFlagOverridesConfig(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", "")
	t.Setenv("REPORT_OUTPUT_DIR", filepath.Join(t.TempDir(), "unused"))
	outDir := t.TempDir()

	if _, err := execute(t, "generate", "--type", "summary", "--period", "monthly", "--selector", "2024-03", "--out", outDir); err != nil {
		t.Fatalf("generate: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "*.pdf"))
	if len(matches) != 1 {
		t.Fatalf("expected one report, got %v", matches)
	}
}

func TestGenerateRejectsBadSelector(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", "")
	outDir := t.TempDir()
	t.Setenv("REPORT_OUTPUT_DIR", outDir)

	if _, err := execute(t, "generate", "--period", "weekly", "--selector", "2024-W99"); err == nil {
		t.Fatalf("expected error for invalid week")
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "*"))
	if len(matches) != 0 {
		t.Errorf("nothing should be written, got %v", matches)
	}
}

func TestInvalidConfigFailsEarly(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_BACKEND", "postgres")

	if _, err := execute(t, "generate"); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestEnqueueRequiresBroker(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", "")

	_, err := execute(t, "enqueue", "--type", "expenses")
	if err == nil || !strings.Contains(err.Error(), "AMQP_URL") {
		t.Fatalf("expected AMQP_URL error, got %v", err)
	}
}

func TestSeedLoadsSQLite(t *testing.T) {
	setBaseEnv(t)
	dbPath := filepath.Join(t.TempDir(), "rcrao.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)

	out, err := execute(t, "seed", "--from", writeSeeds(t))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "1 collections, 1 expenses, 1 receivables") {
		t.Errorf("unexpected output %q", out)
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("open seeded db: %v", err)
	}
	defer repo.Close()

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)
	cols, err := repo.CollectionsBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("query collections: %v", err)
	}
	if len(cols) != 1 || cols[0].ClientName != "Juan" {
		t.Fatalf("unexpected collections %+v", cols)
	}
}

func TestSeedRequiresFrom(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", "")

	if _, err := execute(t, "seed"); err == nil {
		t.Fatalf("expected missing flag error")
	}
}
