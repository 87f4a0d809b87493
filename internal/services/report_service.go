package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rcrao/internal/amqp"
	"rcrao/internal/composer"
	"rcrao/internal/core"
	"rcrao/internal/period"
	"rcrao/internal/report"
)

// Request selects one report. Empty fields fall back to a summary report for
// the current day, generated by the service's default user.
type Request struct {
	ID          string
	Category    string
	PeriodKind  string
	Selector    string
	GeneratedBy string
}

// EventPublisher announces finished reports.
type EventPublisher interface {
	PublishReportGenerated(ctx context.Context, msg amqp.ReportGeneratedMessage) error
}

// ReportService runs the resolve, aggregate and compose pipeline for one
// request at a time. It holds no per-request state.
type ReportService struct {
	resolver    period.Resolver
	aggregator  report.Aggregator
	composer    *composer.Composer
	format      report.Formatter
	events      EventPublisher
	now         func() time.Time
	defaultUser string
}

type Option func(*ReportService)

// WithEvents publishes a report.generated event after each successful report.
func WithEvents(p EventPublisher) Option {
	return func(s *ReportService) { s.events = p }
}

// WithClock sets the clock used to default empty selectors.
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) { s.now = now }
}

// WithResolver replaces the calendar period resolver.
func WithResolver(r period.Resolver) Option {
	return func(s *ReportService) { s.resolver = r }
}

func NewReportService(aggregator report.Aggregator, comp *composer.Composer, currency, defaultUser string, opts ...Option) *ReportService {
	s := &ReportService{
		resolver:    period.NewCalendar(),
		aggregator:  aggregator,
		composer:    comp,
		format:      report.CurrencyFormatter(currency),
		now:         time.Now,
		defaultUser: defaultUser,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize fills request defaults.
func (s *ReportService) Normalize(req Request) Request {
	if strings.TrimSpace(req.Category) == "" {
		req.Category = string(core.CategorySummary)
	}
	if strings.TrimSpace(req.PeriodKind) == "" {
		req.PeriodKind = string(core.Daily)
	}
	if strings.TrimSpace(req.GeneratedBy) == "" {
		req.GeneratedBy = s.defaultUser
	}
	if strings.TrimSpace(req.Selector) == "" {
		if kind, err := core.ParsePeriodKind(req.PeriodKind); err == nil {
			req.Selector = period.DefaultSelector(kind, s.now())
		}
	}
	return req
}

// Generate produces the document for req. Every failure is a
// *core.GenerationError naming the failing stage.
func (s *ReportService) Generate(ctx context.Context, req Request) (*composer.Output, error) {
	start := time.Now()
	req = s.Normalize(req)

	fail := func(stage core.Stage, err error) error {
		return &core.GenerationError{
			Category:   req.Category,
			PeriodKind: req.PeriodKind,
			Selector:   req.Selector,
			Stage:      stage,
			Err:        err,
		}
	}

	kind, err := core.ParsePeriodKind(req.PeriodKind)
	if err != nil {
		return nil, fail(core.StageResolve, err)
	}
	resolved, err := s.resolver.Resolve(kind, req.Selector)
	if err != nil {
		return nil, fail(core.StageResolve, err)
	}

	var doc report.Document
	category, err := core.ParseCategory(req.Category)
	var unsupported *core.UnsupportedCategoryError
	switch {
	case errors.As(err, &unsupported):
		slog.WarnContext(ctx, "Unsupported report category, rendering notice",
			"category", req.Category)
		doc = report.InvalidDocument(resolved)
	case err != nil:
		return nil, fail(core.StageAggregate, err)
	default:
		if err := ctx.Err(); err != nil {
			return nil, fail(core.StageAggregate, err)
		}
		ds, err := s.aggregator.Aggregate(ctx, category, resolved)
		if err != nil {
			return nil, fail(core.StageAggregate, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, fail(core.StageAggregate, err)
		}
		doc = report.Present(ds, resolved, s.format)
	}

	out, err := s.composer.Compose(doc, composer.Meta{GeneratedBy: req.GeneratedBy})
	if err != nil {
		return nil, fail(core.StageCompose, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(core.StageEmit, err)
	}

	slog.InfoContext(ctx, "Report generated",
		"category", req.Category,
		"period_kind", req.PeriodKind,
		"selector", req.Selector,
		"filename", out.Filename,
		"bytes", len(out.Bytes),
		"duration_ms", time.Since(start).Milliseconds())

	s.publish(ctx, req, out)
	return out, nil
}

func (s *ReportService) publish(ctx context.Context, req Request, out *composer.Output) {
	if s.events == nil {
		return
	}
	msg := amqp.ReportGeneratedMessage{
		RequestID:   req.ID,
		Category:    req.Category,
		PeriodKind:  req.PeriodKind,
		Selector:    req.Selector,
		Filename:    out.Filename,
		Bytes:       len(out.Bytes),
		GeneratedBy: req.GeneratedBy,
		GeneratedAt: s.now(),
	}
	if err := s.events.PublishReportGenerated(ctx, msg); err != nil {
		// The document is already built; a lost event does not fail it.
		slog.ErrorContext(ctx, "Failed to publish report generated event",
			"filename", out.Filename, "error", err)
	}
}

// StatusFor classifies a generation error for transport layers.
func StatusFor(err error) Status {
	var (
		invalidPeriod *core.InvalidPeriodError
		unavailable   *core.DataUnavailableError
		layoutErr     *core.LayoutError
	)
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	case errors.As(err, &invalidPeriod):
		return StatusInvalidInput
	case errors.As(err, &unavailable):
		return StatusUnavailable
	case errors.As(err, &layoutErr):
		return StatusLayout
	default:
		return StatusInternal
	}
}

// Status is the outcome class of a generation request.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidInput
	StatusUnavailable
	StatusLayout
	StatusCancelled
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidInput:
		return "invalid_input"
	case StatusUnavailable:
		return "data_unavailable"
	case StatusLayout:
		return "layout_error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}
