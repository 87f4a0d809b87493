// Package period turns report period selectors into concrete date ranges.
//
// Supported selectors:
//
//	daily    2024-03-15
//	weekly   2024-W11 (ISO 8601 week, Monday to Sunday)
//	monthly  2024-03
//	yearly   2024
//
// Ranges are inclusive. Instants run from 00:00:00 of the first date to
// 23:59:59 of the last date, in UTC, matching the naive timestamps records
// are stored with.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rcrao/internal/core"
)

var (
	weekPattern = regexp.MustCompile(`^(\d{4})-?[Ww](\d{1,2})$`)
	yearPattern = regexp.MustCompile(`^\d{4}$`)
)

// Resolved is a period selector turned into an inclusive range.
type Resolved struct {
	Kind         core.PeriodKind
	Selector     string
	StartInstant time.Time
	EndInstant   time.Time
	StartDate    core.Date
	EndDate      core.Date
	Label        string
}

// Resolver maps a period kind and selector to a range.
type Resolver interface {
	Resolve(kind core.PeriodKind, selector string) (Resolved, error)
}

// Calendar is the Gregorian/ISO-week resolver.
type Calendar struct{}

var _ Resolver = Calendar{}

// NewCalendar returns the default resolver.
func NewCalendar() Calendar {
	return Calendar{}
}

// Resolve validates the selector for the given kind and computes its range.
func (Calendar) Resolve(kind core.PeriodKind, selector string) (Resolved, error) {
	raw := strings.TrimSpace(selector)
	if raw == "" {
		return Resolved{}, invalid(kind, selector, "empty selector")
	}

	var (
		start, end core.Date
		label      string
		err        error
	)
	switch kind {
	case core.Daily:
		start, err = core.ParseDate(raw)
		if err != nil {
			return Resolved{}, invalid(kind, selector, "expected YYYY-MM-DD")
		}
		end = start
		label = "Date: " + start.Format("Jan 02, 2006")
	case core.Weekly:
		start, err = isoWeekStart(raw)
		if err != nil {
			return Resolved{}, invalid(kind, selector, err.Error())
		}
		end = start.AddDays(6)
		label = fmt.Sprintf("Week: %s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	case core.Monthly:
		t, perr := time.Parse("2006-01", raw)
		if perr != nil {
			return Resolved{}, invalid(kind, selector, "expected YYYY-MM")
		}
		start = core.Date{Time: t}
		end = core.Date{Time: t.AddDate(0, 1, -1)}
		label = "Month: " + start.Format("January 2006")
	case core.Yearly:
		if !yearPattern.MatchString(raw) {
			return Resolved{}, invalid(kind, selector, "expected YYYY")
		}
		year, _ := strconv.Atoi(raw)
		if year < 1 {
			return Resolved{}, invalid(kind, selector, "year out of range")
		}
		start = core.NewDate(year, 1, 1)
		end = core.NewDate(year, 12, 31)
		label = fmt.Sprintf("Year: %04d", year)
	default:
		return Resolved{}, invalid(kind, selector, "unknown period kind")
	}

	return Resolved{
		Kind:         kind,
		Selector:     raw,
		StartInstant: start.Time,
		EndInstant:   end.Add(24*time.Hour - time.Second),
		StartDate:    start,
		EndDate:      end,
		Label:        label,
	}, nil
}

// DefaultSelector returns the selector naming the period that contains now.
// It is meant for request boundaries that received no explicit selector.
func DefaultSelector(kind core.PeriodKind, now time.Time) string {
	switch kind {
	case core.Daily:
		return now.Format(core.DateLayout)
	case core.Weekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case core.Monthly:
		return now.Format("2006-01")
	case core.Yearly:
		return now.Format("2006")
	}
	return ""
}

// isoWeekStart returns the Monday of the ISO week named by s.
func isoWeekStart(s string) (core.Date, error) {
	m := weekPattern.FindStringSubmatch(s)
	if m == nil {
		return core.Date{}, fmt.Errorf("expected YYYY-Www")
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > WeeksInYear(year) {
		return core.Date{}, fmt.Errorf("week %d out of range for %d", week, year)
	}

	// Week 1 is the week containing January 4th.
	jan4 := core.NewDate(year, 1, 4)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDays(-offset + (week-1)*7), nil
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

func invalid(kind core.PeriodKind, selector, reason string) error {
	return &core.InvalidPeriodError{Kind: string(kind), Value: selector, Reason: reason}
}
