package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rcrao/internal/core"
	"rcrao/internal/log"
	"rcrao/internal/middleware/trace"
	"rcrao/internal/period"
	"rcrao/internal/services"
)

const (
	readyTimeout      = 5 * time.Second
	retryAfterSeconds = 30
)

var categoryLabels = map[core.Category]string{
	core.CategoryCollections: "Collections",
	core.CategoryExpenses:    "Expenses",
	core.CategoryReceivables: "Receivables",
	core.CategorySummary:     "Summary",
}

var periodLabels = map[core.PeriodKind]string{
	core.Daily:   "Daily",
	core.Weekly:  "Weekly",
	core.Monthly: "Monthly",
	core.Yearly:  "Yearly",
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type indexData struct {
	OrgName    string
	Categories []option
	Periods    []option
	Date       string
	Week       string
	Month      string
	Year       string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if rb := RequireGET(r); rb != nil {
		rb.Write(w)
		return
	}
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := s.now()
	data := indexData{
		OrgName: s.orgName,
		Date:    period.DefaultSelector(core.Daily, now),
		Week:    period.DefaultSelector(core.Weekly, now),
		Month:   period.DefaultSelector(core.Monthly, now),
		Year:    period.DefaultSelector(core.Yearly, now),
	}
	for _, c := range core.Categories() {
		data.Categories = append(data.Categories, option{
			Value:    c.String(),
			Label:    categoryLabels[c],
			Selected: c == core.CategorySummary,
		})
	}
	for _, k := range core.PeriodKinds() {
		data.Periods = append(data.Periods, option{
			Value:    k.String(),
			Label:    periodLabels[k],
			Selected: k == core.Daily,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// handleReport generates one report and returns it as a PDF download.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if rb := RequireGET(r); rb != nil {
		rb.Write(w)
		return
	}

	req := ParseReportRequest(r.URL.Query())
	req.ID = trace.RequestID(r)
	req.GeneratedBy = s.detector.ForwardedUser(r)

	out, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, r, err)
		return
	}
	DocumentResponse(out).Write(w)
}

func (s *Server) writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	switch services.StatusFor(err) {
	case services.StatusInvalidInput:
		logger.WarnContext(ctx, "Rejected report request", "error", err)
		var invalid *core.InvalidPeriodError
		msg := "Invalid report period."
		if errors.As(err, &invalid) {
			msg = invalid.Error()
		}
		BadRequestError(msg).Write(w)
	case services.StatusUnavailable:
		logger.ErrorContext(ctx, "Report data unavailable", "error", err)
		ServiceUnavailableError("Report data is temporarily unavailable. Please try again shortly.", retryAfterSeconds).Write(w)
	case services.StatusCancelled:
		if ctx.Err() != nil {
			// The client went away; nobody is left to read a response.
			logger.InfoContext(ctx, "Report request cancelled by client", "error", err)
			return
		}
		logger.ErrorContext(ctx, "Report generation timed out", "error", err)
		ServiceUnavailableError("Report generation timed out. Please try again shortly.", retryAfterSeconds).Write(w)
	default:
		logger.ErrorContext(ctx, "Report generation failed", "error", err)
		InternalServerError("Failed to generate report.").Write(w)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, inFlight := s.tracer.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
		"requests": map[string]int64{
			"total":     total,
			"in_flight": inFlight,
		},
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["store"] = "not_configured"
	default:
		if err := s.ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "check", "store", "error", err)
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}
	checks["security"] = map[string]any{
		"suspicious_requests": s.detector.SuspiciousRequests(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
