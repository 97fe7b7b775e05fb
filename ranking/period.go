package ranking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodKind selects the time filter of a ranking request.
type PeriodKind string

const (
	PeriodGlobal PeriodKind = "global"
	PeriodYear   PeriodKind = "year"
	PeriodMonth  PeriodKind = "month"
)

// Period is the time filter applied to control variable records.
type Period struct {
	Kind  PeriodKind
	Year  int
	Month int
}

// Global is the all-history period.
func Global() Period { return Period{Kind: PeriodGlobal} }

// ForYear scopes a ranking to one calendar year.
func ForYear(year int) Period { return Period{Kind: PeriodYear, Year: year} }

// ForMonth scopes a ranking to one calendar month.
func ForMonth(year, month int) Period { return Period{Kind: PeriodMonth, Year: year, Month: month} }

// ParsePeriod builds a period from the raw year and month query values.
// Both empty means global; a month without a year is rejected.
func ParsePeriod(year, month string) (Period, error) {
	year = strings.TrimSpace(year)
	month = strings.TrimSpace(month)

	if year == "" {
		if month != "" {
			return Period{}, fmt.Errorf("%w: month requires a year", ErrInvalidPeriod)
		}
		return Global(), nil
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 9999 {
		return Period{}, fmt.Errorf("%w: year %q", ErrInvalidPeriod, year)
	}
	if month == "" {
		return ForYear(y), nil
	}

	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, month)
	}
	return ForMonth(y, m), nil
}

// IsGlobal reports whether the period covers all history.
func (p Period) IsGlobal() bool {
	return p.Kind == "" || p.Kind == PeriodGlobal
}

// Bounds returns the first and last calendar day of the period. Global periods have no bounds.
func (p Period) Bounds() (start, end time.Time, ok bool) {
	switch p.Kind {
	case PeriodYear:
		start = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return start, end, true
	case PeriodMonth:
		start = time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
		return start, end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Matches applies the window predicate: a record matches when either boundary
// falls in the period, or when its window overlaps the period. A zero end is an open window.
// The conditions form a single predicate so a record is counted once per period.
func (p Period) Matches(windowStart, windowEnd time.Time) bool {
	if p.IsGlobal() {
		return true
	}
	if p.sameBucket(windowStart) || (!windowEnd.IsZero() && p.sameBucket(windowEnd)) {
		return true
	}
	start, end, _ := p.Bounds()
	ws := truncateDay(windowStart)
	if ws.After(end) {
		return false
	}
	return windowEnd.IsZero() || !truncateDay(windowEnd).Before(start)
}

func (p Period) sameBucket(t time.Time) bool {
	t = t.UTC()
	if t.Year() != p.Year {
		return false
	}
	return p.Kind != PeriodMonth || int(t.Month()) == p.Month
}

// Key is a stable identifier used in cache keys and metric labels.
func (p Period) Key() string {
	switch p.Kind {
	case PeriodYear:
		return fmt.Sprintf("year:%04d", p.Year)
	case PeriodMonth:
		return fmt.Sprintf("month:%04d-%02d", p.Year, p.Month)
	default:
		return string(PeriodGlobal)
	}
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of a 1-based month, or an empty string when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Label is the human readable description of the period.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodYear:
		return strconv.Itoa(p.Year)
	case PeriodMonth:
		return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
	default:
		return "Global"
	}
}
