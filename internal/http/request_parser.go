// Package http provides HTTP server and handler implementations.
//
// This file extracts report criteria from query strings. Field names follow
// the report form: report_type, period and one selector field per period.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"rcrao/internal/core"
	"rcrao/internal/services"
)

// Query parameter names accepted by GET /reports.
const (
	ParamReportType  = "report_type"
	ParamPeriod      = "period"
	ParamReportDate  = "report_date"
	ParamReportWeek  = "report_week"
	ParamReportMonth = "report_month"
	ParamReportYear  = "report_year"
)

// selectorParams maps each period kind to the field carrying its selector.
var selectorParams = map[core.PeriodKind]string{
	core.Daily:   ParamReportDate,
	core.Weekly:  ParamReportWeek,
	core.Monthly: ParamReportMonth,
	core.Yearly:  ParamReportYear,
}

// ParseReportRequest builds a generation request from query parameters.
// Only the selector field matching the chosen period is read; missing
// values are left empty for the service to default.
func ParseReportRequest(query url.Values) services.Request {
	req := services.Request{
		Category:   sanitizeInput(query.Get(ParamReportType)),
		PeriodKind: sanitizeInput(query.Get(ParamPeriod)),
	}

	kind := core.Daily
	if req.PeriodKind != "" {
		kind = core.PeriodKind(strings.ToLower(req.PeriodKind))
	}
	if field, ok := selectorParams[kind]; ok {
		req.Selector = sanitizeInput(query.Get(field))
	}
	return req
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers. HEAD is
// accepted alongside GET.
func RequireGET(r *http.Request) *ResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
