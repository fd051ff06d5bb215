// Package analytics derives charts and advice from a set of expense records.
//
// Everything here is a pure function of (records, filter, now): nothing is
// cached or persisted. Window membership is decided on calendar days in the
// location of now, using each record's timestamp.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"spendtrack/internal/core"
)

type Range string

const (
	RangeAll    Range = "all"
	RangeToday  Range = "today"
	RangeWeek   Range = "week"
	RangeMonth  Range = "month"
	RangeCustom Range = "custom"
)

const (
	weekDays  = 7
	monthDays = 30

	// MaxCustomDays bounds a custom range so a series never grows unbounded.
	MaxCustomDays = 366

	isoDate = "2006-01-02"
)

// DateFilter selects records by calendar day. Start and End are only used by
// RangeCustom; a custom filter missing either bound behaves as RangeAll.
type DateFilter struct {
	Range Range
	Start time.Time
	End   time.Time
}

func (f DateFilter) effective() Range {
	if f.Range == RangeCustom && (f.Start.IsZero() || f.End.IsZero()) {
		return RangeAll
	}
	if f.Range == "" {
		return RangeAll
	}
	return f.Range
}

// ParseFilter builds a filter from request values. Dates are YYYY-MM-DD and
// interpreted in loc. Blank custom bounds are allowed and fall back to all.
func ParseFilter(rng, start, end string, loc *time.Location) (DateFilter, error) {
	f := DateFilter{Range: Range(strings.ToLower(strings.TrimSpace(rng)))}
	switch f.Range {
	case "":
		f.Range = RangeAll
		return f, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth:
		return f, nil
	case RangeCustom:
	default:
		return DateFilter{}, fmt.Errorf("%w: unknown range %q", core.ErrValidation, rng)
	}

	var err error
	if f.Start, err = parseDay(start, loc); err != nil {
		return DateFilter{}, err
	}
	if f.End, err = parseDay(end, loc); err != nil {
		return DateFilter{}, err
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return f, nil
	}
	if f.End.Before(f.Start) {
		return DateFilter{}, fmt.Errorf("%w: end date before start date", core.ErrValidation)
	}
	if daysBetween(f.Start, f.End)+1 > MaxCustomDays {
		return DateFilter{}, fmt.Errorf("%w: custom range longer than %d days", core.ErrValidation, MaxCustomDays)
	}
	return f, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(isoDate, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", core.ErrValidation, s)
	}
	return t, nil
}

// Bounds returns the first and last calendar day of the window. ok is false
// for RangeAll, which has no bounds.
func (f DateFilter) Bounds(now time.Time) (first, last time.Time, ok bool) {
	today := core.StartOfDay(now)
	switch f.effective() {
	case RangeToday:
		return today, today, true
	case RangeWeek:
		return today.AddDate(0, 0, -(weekDays - 1)), today, true
	case RangeMonth:
		return today.AddDate(0, 0, -(monthDays - 1)), today, true
	case RangeCustom:
		loc := now.Location()
		return core.StartOfDay(f.Start.In(loc)), core.StartOfDay(f.End.In(loc)), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Filter returns the records whose timestamp falls on a day inside the window,
// preserving order.
func Filter(records []core.ExpenseRecord, f DateFilter, now time.Time) []core.ExpenseRecord {
	first, last, bounded := f.Bounds(now)
	out := make([]core.ExpenseRecord, 0, len(records))
	for _, r := range records {
		if bounded {
			day := core.StartOfDay(r.Time(now.Location()))
			if day.Before(first) || day.After(last) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
