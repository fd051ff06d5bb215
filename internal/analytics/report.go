package analytics

import (
	"time"

	"spendtrack/internal/core"
)

// Report is everything the analytics view shows for one filter.
type Report struct {
	Range        Range                 `json:"range"`
	Start        string                `json:"start,omitempty"`
	End          string                `json:"end,omitempty"`
	Count        int                   `json:"count"`
	Total        float64               `json:"total"`
	DailyAverage float64               `json:"dailyAverage"`
	Series       []Point               `json:"series"`
	Breakdown    []core.CategoryAmount `json:"breakdown"`
	Tip          Tip                   `json:"tip"`
}

// Build filters records once and derives every view from the filtered set.
func Build(records []core.ExpenseRecord, f DateFilter, now time.Time, th Thresholds) Report {
	filtered := Filter(records, f, now)
	r := Report{
		Range:        f.effective(),
		Count:        len(filtered),
		Total:        Total(filtered),
		DailyAverage: DailyAverage(filtered, f, now),
		Series:       TimeSeries(filtered, f, now),
		Breakdown:    Breakdown(filtered),
		Tip:          Advise(filtered, f, now, th),
	}
	if first, last, ok := f.Bounds(now); ok {
		r.Start = core.FormatDate(first)
		r.End = core.FormatDate(last)
	}
	return r
}
