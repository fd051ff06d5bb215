// Package budget evaluates spend against a Budget for the current period
// window and projects the effect of a pending mutation before it commits.
//
// Each period has its own window strategy that knows where the current
// window starts. Windows reset at fixed calendar boundaries in the location
// of the instant passed in.
package budget

import (
	"fmt"
	"time"

	"spendtrack/internal/core"
)

// Window is the strategy interface for a budget period.
type Window interface {
	// Start returns the first instant of the window that contains now.
	Start(now time.Time) time.Time
}

// DailyWindow starts at midnight of the current day.
type DailyWindow struct{}

func (DailyWindow) Start(now time.Time) time.Time {
	return core.StartOfDay(now)
}

// WeeklyWindow starts at midnight of the most recent Sunday, today included.
type WeeklyWindow struct{}

func (WeeklyWindow) Start(now time.Time) time.Time {
	day := core.StartOfDay(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// MonthlyWindow starts at midnight on the first of the current month.
type MonthlyWindow struct{}

func (MonthlyWindow) Start(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

var windows = map[core.Period]Window{
	core.Daily:   DailyWindow{},
	core.Weekly:  WeeklyWindow{},
	core.Monthly: MonthlyWindow{},
}

// GetWindow returns the window strategy for a period.
func GetWindow(period core.Period) (Window, error) {
	w, ok := windows[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, period)
	}
	return w, nil
}

// PeriodStart returns the start of the current window for period.
func PeriodStart(period core.Period, now time.Time) (time.Time, error) {
	w, err := GetWindow(period)
	if err != nil {
		return time.Time{}, err
	}
	return w.Start(now), nil
}
