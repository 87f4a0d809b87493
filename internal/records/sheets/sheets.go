package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"rcrao/internal/core"
	"rcrao/internal/records"
	"rcrao/internal/records/memory"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options names the spreadsheet and its three record tabs.
type Options struct {
	SpreadsheetID    string
	CollectionsSheet string
	ExpensesSheet    string
	ReceivablesSheet string
	// MaxAge bounds how long a loaded snapshot answers queries before the
	// tabs are read again. Zero reloads on every report.
	MaxAge time.Duration
}

// Store reads records from a spreadsheet and answers queries from an
// in-memory snapshot of the three tabs.
type Store struct {
	svc  *gsheet.Service
	opts Options

	mu       sync.Mutex
	snap     *memory.Store
	loadedAt time.Time
	now      func() time.Time
}

var _ records.Store = (*Store)(nil)

// New creates a Sheets-backed store using Service Account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if opts.CollectionsSheet == "" {
		opts.CollectionsSheet = "Collections"
	}
	if opts.ExpensesSheet == "" {
		opts.ExpensesSheet = "Expenses"
	}
	if opts.ReceivablesSheet == "" {
		opts.ReceivablesSheet = "Receivables"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Store{svc: svc, opts: opts, now: time.Now}, nil
}

// newSheetsService initializes a read-only Sheets Service.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Refresh reads all three tabs with one BatchGet call.
func (s *Store) Refresh(ctx context.Context) error {
	ranges := []string{s.opts.CollectionsSheet, s.opts.ExpensesSheet, s.opts.ReceivablesSheet}
	resp, err := s.svc.Spreadsheets.Values.BatchGet(s.opts.SpreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch get %v: %w", ranges, err)
	}
	if len(resp.ValueRanges) != len(ranges) {
		return fmt.Errorf("batch get returned %d ranges, want %d", len(resp.ValueRanges), len(ranges))
	}

	cols, err := parseCollections(resp.ValueRanges[0].Values)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.opts.CollectionsSheet, err)
	}
	exps, err := parseExpenses(resp.ValueRanges[1].Values)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.opts.ExpensesSheet, err)
	}
	recs, err := parseReceivables(resp.ValueRanges[2].Values)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.opts.ReceivablesSheet, err)
	}

	snap := memory.New()
	snap.Replace(cols, exps, recs)

	s.mu.Lock()
	s.snap = snap
	s.loadedAt = s.now()
	s.mu.Unlock()

	slog.InfoContext(ctx, "Loaded records from Google Sheets",
		"spreadsheet_id", s.opts.SpreadsheetID,
		"collections", len(cols),
		"expenses", len(exps),
		"receivables", len(recs))
	return nil
}

func (s *Store) snapshot(ctx context.Context) (*memory.Store, error) {
	s.mu.Lock()
	snap, loadedAt := s.snap, s.loadedAt
	s.mu.Unlock()

	if snap != nil && s.opts.MaxAge > 0 && s.now().Sub(loadedAt) < s.opts.MaxAge {
		return snap, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *Store) CollectionsBetween(ctx context.Context, from, to time.Time) ([]core.Collection, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.CollectionsBetween(ctx, from, to)
}

func (s *Store) SumCashReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.SumCashReceived(ctx, from, to)
}

func (s *Store) ExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ExpensesBetween(ctx, from, to)
}

func (s *Store) SumExpenses(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.SumExpenses(ctx, from, to)
}

func (s *Store) ReceivablesCreatedBetween(ctx context.Context, from, to time.Time) ([]core.Receivable, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.ReceivablesCreatedBetween(ctx, from, to)
}

func (s *Store) OutstandingReceivables(ctx context.Context, asOf time.Time) ([]core.Receivable, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.OutstandingReceivables(ctx, asOf)
}

func (s *Store) SumReceivablesCreated(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.SumReceivablesCreated(ctx, from, to)
}

func (s *Store) SumOutstanding(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.SumOutstanding(ctx, asOf)
}

func (s *Store) SumPaidReceivables(ctx context.Context, from, to core.Date) (decimal.Decimal, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.SumPaidReceivables(ctx, from, to)
}

// Ping loads the tabs unless a fresh snapshot is already held.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.snapshot(ctx)
	return err
}
