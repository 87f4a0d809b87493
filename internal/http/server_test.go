package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rcrao/internal/composer"
	"rcrao/internal/core"
	"rcrao/internal/pdf"
	"rcrao/internal/records/memory"
	"rcrao/internal/report"
	"rcrao/internal/services"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeGenerator struct {
	out  *composer.Output
	err  error
	reqs []services.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req services.Request) (*composer.Output, error) {
	g.reqs = append(g.reqs, req)
	return g.out, g.err
}

func pdfOutput() *composer.Output {
	return &composer.Output{
		Bytes:       []byte("%PDF-1.3 fake"),
		Filename:    "RCRAO_Report_summary_daily_20240315.pdf",
		ContentType: composer.ContentTypePDF,
	}
}

func newTestServer(t *testing.T, gen ReportGenerator, opts Options) *Server {
	t.Helper()
	if opts.Now == nil {
		opts.Now = clock
	}
	if opts.OrgName == "" {
		opts.OrgName = "RCRAO Accounting System"
	}
	s, err := NewServer(":0", gen, opts)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

func serve(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, r)
	return rec
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"RCRAO Accounting System",
		`value="2024-03-15"`,
		`value="2024-W11"`,
		`value="2024-03"`,
		`<option value="summary" selected>Summary</option>`,
		`<option value="daily" selected>Daily</option>`,
		`action="/reports"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header not set")
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/missing", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing status = %d, want 404", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/static/report.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /static/report.css status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Cache-Control"), "public") {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestReport_Success(t *testing.T) {
	gen := &fakeGenerator{out: pdfOutput()}
	s := newTestServer(t, gen, Options{})

	req := httptest.NewRequest(http.MethodGet, "/reports?report_type=summary&period=weekly&report_week=2024-W11", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set("X-Forwarded-User", "maria")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=RCRAO_Report_summary_daily_20240315.pdf" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF-1.3 fake" {
		t.Errorf("body = %q", rec.Body.String())
	}

	if len(gen.reqs) != 1 {
		t.Fatalf("generator called %d times", len(gen.reqs))
	}
	got := gen.reqs[0]
	if got.Category != "summary" || got.PeriodKind != "weekly" || got.Selector != "2024-W11" {
		t.Errorf("unexpected request %+v", got)
	}
	if got.GeneratedBy != "maria" {
		t.Errorf("GeneratedBy = %q, want maria", got.GeneratedBy)
	}
	if got.ID == "" || got.ID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request ID %q does not match response header %q", got.ID, rec.Header().Get("X-Request-ID"))
	}
}

func TestReport_ForwardedUserFromUntrustedPeerIgnored(t *testing.T) {
	gen := &fakeGenerator{out: pdfOutput()}
	s := newTestServer(t, gen, Options{})

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-User", "mallory")
	serve(s, req)

	if len(gen.reqs) != 1 || gen.reqs[0].GeneratedBy != "" {
		t.Errorf("GeneratedBy should be left for the service default, got %+v", gen.reqs)
	}
}

func TestReport_Errors(t *testing.T) {
	wrap := func(stage core.Stage, err error) error {
		return &core.GenerationError{Category: "expenses", PeriodKind: "monthly", Stage: stage, Err: err}
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantRetry  string
	}{
		{
			name:       "invalid period",
			err:        wrap(core.StageResolve, &core.InvalidPeriodError{Kind: "monthly", Value: "2024-13", Reason: "month out of range"}),
			wantStatus: http.StatusBadRequest,
			wantBody:   "month out of range",
		},
		{
			name:       "data unavailable",
			err:        wrap(core.StageAggregate, &core.DataUnavailableError{Category: core.CategoryExpenses, Query: "expenses", Err: errors.New("database is locked")}),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "temporarily unavailable",
			wantRetry:  "30",
		},
		{
			name:       "layout",
			err:        wrap(core.StageCompose, &core.LayoutError{Reason: "no columns"}),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to generate report.",
		},
		{
			name:       "internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to generate report.",
		},
		{
			name:       "deadline",
			err:        wrap(core.StageAggregate, context.DeadlineExceeded),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "timed out",
			wantRetry:  "30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeGenerator{err: tt.err}, Options{})

			rec := serve(s, httptest.NewRequest(http.MethodGet, "/reports?report_type=expenses&period=monthly&report_month=2024-13", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q should contain %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			if strings.Contains(rec.Body.String(), "database is locked") {
				t.Error("store error details leaked to the client")
			}
		})
	}
}

func TestReport_ClientGone(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{err: &core.GenerationError{Stage: core.StageAggregate, Err: context.Canceled}}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/reports", nil).WithContext(ctx))

	if rec.Body.Len() != 0 {
		t.Errorf("nothing should be written for a cancelled request, got %q", rec.Body.String())
	}
}

func TestReport_MethodNotAllowed(t *testing.T) {
	gen := &fakeGenerator{out: pdfOutput()}
	s := newTestServer(t, gen, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodPost, "/reports", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if len(gen.reqs) != 0 {
		t.Error("generator should not run for rejected methods")
	}
}

func TestReport_RateLimited(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{out: pdfOutput()}, Options{RateLimit: 2})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(s, httptest.NewRequest(http.MethodGet, "/reports", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// The form page is not rate limited.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadyFunc
		wantStatus int
		wantState  string
		wantStore  string
	}{
		{
			name:       "store ok",
			ready:      func(context.Context) error { return nil },
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantStore:  "ok",
		},
		{
			name:       "store down",
			ready:      func(context.Context) error { return fmt.Errorf("ping: %w", errors.New("connection refused")) },
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantStore:  "failed: ping: connection refused",
		},
		{
			name:       "no check configured",
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantStore:  "not_configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeGenerator{}, Options{Ready: tt.ready})

			rec := serve(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Status string         `json:"status"`
				Checks map[string]any `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Status != tt.wantState {
				t.Errorf("status = %q, want %q", body.Status, tt.wantState)
			}
			if body.Checks["store"] != tt.wantStore {
				t.Errorf("store check = %v, want %q", body.Checks["store"], tt.wantStore)
			}
		})
	}
}

func TestNewServer_InvalidTrustedProxy(t *testing.T) {
	if _, err := NewServer(":0", &fakeGenerator{}, Options{TrustedProxies: []string{"nope"}}); err == nil {
		t.Error("expected error for invalid trusted proxy")
	}
}

func TestReport_EndToEnd(t *testing.T) {
	store := memory.New()
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	store.AddCollection(core.Collection{
		ClientName: "Juan", ReferenceNumber: "OR-1",
		Amount: decimal.NewFromInt(1000), CashReceived: decimal.NewFromInt(600),
		ModeOfPayment: "Cash", PersonInCharge: "Ana",
		TransactionAt: at, CreatedAt: at,
	})

	comp := composer.New(composer.Config{}, pdf.Factory(pdf.DefaultConfig(), clock), composer.WithClock(clock))
	svc := services.NewReportService(report.NewStoreAggregator(store), comp, "PHP", "Admin", services.WithClock(clock))
	s := newTestServer(t, svc, Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/reports?report_type=collections&period=daily&report_date=2024-03-15", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("response is not a PDF")
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "RCRAO_Report_collections_daily_20240315.pdf") {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/reports?report_type=collections&period=monthly&report_month=2024-13", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", rec.Code)
	}
}
