package analytics

import (
	"slices"
	"time"

	"spendtrack/internal/core"
)

// Point is one day of a time series.
type Point struct {
	Day    time.Time `json:"day"`
	Date   string    `json:"date"`
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
}

// Days returns how many daily buckets the filter spans: 1 for today, 7 for a
// week, 30 for a month or everything, one per calendar day for a custom range.
func (f DateFilter) Days(now time.Time) int {
	switch f.effective() {
	case RangeToday:
		return 1
	case RangeWeek:
		return weekDays
	case RangeCustom:
		first, last, _ := f.Bounds(now)
		return daysBetween(first, last) + 1
	default:
		return monthDays
	}
}

// TimeSeries sums amounts per calendar day over the filter's buckets, oldest
// first. Records outside every bucket are ignored.
func TimeSeries(records []core.ExpenseRecord, f DateFilter, now time.Time) []Point {
	n := f.Days(now)
	first, _, bounded := f.Bounds(now)
	if !bounded {
		first = core.StartOfDay(now).AddDate(0, 0, -(n - 1))
	}

	sums := make([]core.Sum, n)
	loc := now.Location()
	for _, r := range records {
		i := daysBetween(first, core.StartOfDay(r.Time(loc)))
		if i < 0 || i >= n {
			continue
		}
		sums[i].Add(r.Amount)
	}

	points := make([]Point, n)
	for i := range points {
		day := first.AddDate(0, 0, i)
		points[i] = Point{
			Day:    day,
			Date:   core.FormatDate(day),
			Label:  day.Format("Jan 2"),
			Amount: sums[i].Value(),
		}
	}
	return points
}

// Breakdown sums amounts per category. Every known category is present, in
// display order, followed by any other category found, sorted by name.
func Breakdown(records []core.ExpenseRecord) []core.CategoryAmount {
	sums := make(map[string]*core.Sum)
	var total core.Sum
	for _, r := range records {
		s, ok := sums[r.Category]
		if !ok {
			s = &core.Sum{}
			sums[r.Category] = s
		}
		s.Add(r.Amount)
		total.Add(r.Amount)
	}

	order := core.KnownCategories()
	var extra []string
	for c := range sums {
		if !core.IsKnownCategory(c) {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	out := make([]core.CategoryAmount, 0, len(order))
	for _, c := range order {
		var amount float64
		if s, ok := sums[c]; ok {
			amount = s.Value()
		}
		out = append(out, core.CategoryAmount{
			Category: c,
			Amount:   amount,
			Percent:  core.Percent(amount, total.Value()),
		})
	}
	return out
}

// Total sums the amounts of records, rounded to cents.
func Total(records []core.ExpenseRecord) float64 {
	var s core.Sum
	for _, r := range records {
		s.Add(r.Amount)
	}
	return s.Value()
}
