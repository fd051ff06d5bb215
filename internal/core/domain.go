package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// DateLayout is the month/day/year layout used for the user-facing Date field.
const DateLayout = "1/2/2006"

type (
	Period string

	// ExpenseRecord is a single spend entry. Timestamp (Unix milliseconds) drives
	// every window computation; Date is the day the user attributes it to.
	ExpenseRecord struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
		Timestamp   int64   `json:"timestamp"`
	}

	// ExpenseInput is the caller-supplied part of a record.
	ExpenseInput struct {
		Description string
		Amount      float64
		Category    string
		Date        string
	}

	Budget struct {
		Amount         float64            `json:"amount"`
		Period         Period             `json:"period"`
		CategoryLimits map[string]float64 `json:"categoryLimits,omitempty"`
	}
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("expense not found")
	ErrPersistence = errors.New("persistence error")

	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidPeriod    = fmt.Errorf("%w: period must be daily, weekly or monthly", ErrValidation)
	ErrInvalidLimit     = fmt.Errorf("%w: category limit must be a positive number", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: date must be month/day/year", ErrValidation)
)

func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

// ValidAmount reports whether v can be stored as an expense or budget amount.
// The check applies to the value rounded to cents, so 0.004 is rejected.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && RoundAmount(v) > 0
}

// Validate checks the input the way it will be stored: trimmed description and
// a finite positive amount. The date, when given, must parse.
func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	if !ValidAmount(in.Amount) {
		return ErrInvalidAmount
	}
	if d := strings.TrimSpace(in.Date); d != "" {
		if _, err := ParseDate(d, time.UTC); err != nil {
			return err
		}
	}
	return nil
}

func (b Budget) Validate() error {
	if !ValidAmount(b.Amount) {
		return ErrInvalidAmount
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	for category, limit := range b.CategoryLimits {
		if !ValidAmount(limit) {
			return fmt.Errorf("%w (%s)", ErrInvalidLimit, category)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share the limits map.
func (b Budget) Clone() Budget {
	out := b
	if b.CategoryLimits != nil {
		out.CategoryLimits = make(map[string]float64, len(b.CategoryLimits))
		for k, v := range b.CategoryLimits {
			out.CategoryLimits[k] = v
		}
	}
	return out
}

// Time returns the record's timestamp as a time in loc.
func (r ExpenseRecord) Time(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// ParseDate parses a month/day/year date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as month/day/year.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
