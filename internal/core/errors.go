package core

import (
	"fmt"
	"strings"
)

// Stage names the pipeline step a generation failed in.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageAggregate Stage = "aggregate"
	StageCompose   Stage = "compose"
	StageEmit      Stage = "emit"
)

// InvalidPeriodError reports a malformed or unknown period selector.
type InvalidPeriodError struct {
	Kind   string
	Value  string
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	var b strings.Builder
	b.WriteString("invalid period")
	if e.Kind != "" {
		fmt.Fprintf(&b, " kind=%q", e.Kind)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " selector=%q", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// DataUnavailableError wraps a record store failure.
type DataUnavailableError struct {
	Category Category
	Query    string
	Err      error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for %s (%s): %v", e.Category, e.Query, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// LayoutError reports a table whose columns cannot be balanced.
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return "layout: " + e.Reason
}

// UnsupportedCategoryError reports a report category outside the known set.
type UnsupportedCategoryError struct {
	Category string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported report category %q", e.Category)
}

// GenerationError is the envelope returned for any failed report request.
type GenerationError struct {
	Category   string
	PeriodKind string
	Selector   string
	Stage      Stage
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s/%s report (%s) failed at %s: %v",
		e.Category, e.PeriodKind, e.Selector, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
