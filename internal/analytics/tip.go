package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"spendtrack/internal/core"
)

type TipKind string

const (
	TipOnboarding    TipKind = "onboarding"
	TipConcentration TipKind = "concentration"
	TipHighSpend     TipKind = "high_spend"
	TipRecentTrend   TipKind = "recent_trend"
	TipDiversify     TipKind = "diversify"
	TipPositive      TipKind = "positive"
)

type Tip struct {
	Kind    TipKind `json:"kind"`
	Message string  `json:"message"`
}

// Thresholds tune the advisory rules.
type Thresholds struct {
	HighDailySpend       float64
	ConcentrationPercent int
	RecentCount          int
	RecentMultiplier     float64
	DiversifyCategories  int
	DiversifyMinRecords  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighDailySpend:       1000,
		ConcentrationPercent: 50,
		RecentCount:          3,
		RecentMultiplier:     1.5,
		DiversifyCategories:  2,
		DiversifyMinRecords:  5,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.HighDailySpend <= 0 {
		t.HighDailySpend = d.HighDailySpend
	}
	if t.ConcentrationPercent <= 0 {
		t.ConcentrationPercent = d.ConcentrationPercent
	}
	if t.RecentCount <= 0 {
		t.RecentCount = d.RecentCount
	}
	if t.RecentMultiplier <= 0 {
		t.RecentMultiplier = d.RecentMultiplier
	}
	if t.DiversifyCategories <= 0 {
		t.DiversifyCategories = d.DiversifyCategories
	}
	if t.DiversifyMinRecords <= 0 {
		t.DiversifyMinRecords = d.DiversifyMinRecords
	}
	return t
}

// DailyAverage divides the total of records by the number of days the filter
// covers. For RangeAll that is the span from the earliest record to today.
func DailyAverage(records []core.ExpenseRecord, f DateFilter, now time.Time) float64 {
	if len(records) == 0 {
		return 0
	}
	days := f.Days(now)
	if f.effective() == RangeAll {
		earliest := records[0].Timestamp
		for _, r := range records[1:] {
			earliest = min(earliest, r.Timestamp)
		}
		loc := now.Location()
		days = max(1, daysBetween(core.StartOfDay(time.UnixMilli(earliest).In(loc)), core.StartOfDay(now))+1)
	}
	return core.RoundAmount(Total(records) / float64(days))
}

// Advise evaluates the advisory rules in priority order over records already
// filtered by f. Only the first matching rule produces the tip.
func Advise(records []core.ExpenseRecord, f DateFilter, now time.Time, th Thresholds) Tip {
	th = th.withDefaults()
	if len(records) == 0 {
		return Tip{TipOnboarding, "Start adding your expenses to get personalized tips on where your money goes."}
	}

	breakdown := Breakdown(records)
	top := breakdown[0]
	used := 0
	for _, c := range breakdown {
		if c.Percent > top.Percent {
			top = c
		}
		if c.Amount > 0 {
			used++
		}
	}
	if top.Percent >= th.ConcentrationPercent {
		return Tip{TipConcentration, fmt.Sprintf(
			"%s accounts for %d%% of your spending. Look for ways to cut back in this category.",
			top.Category, top.Percent)}
	}

	avg := DailyAverage(records, f, now)
	if avg > th.HighDailySpend {
		return Tip{TipHighSpend, fmt.Sprintf(
			"You are spending %.2f per day on average. Setting a daily limit could help you save more.", avg)}
	}

	if len(records) >= th.RecentCount {
		recent := slices.Clone(records)
		slices.SortStableFunc(recent, func(a, b core.ExpenseRecord) int {
			return cmp.Compare(b.Timestamp, a.Timestamp)
		})
		recentAvg := Total(recent[:th.RecentCount]) / float64(th.RecentCount)
		if recentAvg > avg*th.RecentMultiplier {
			return Tip{TipRecentTrend, "Your recent expenses are well above your daily average. Review your latest purchases."}
		}
	}

	if used <= th.DiversifyCategories && len(records) > th.DiversifyMinRecords {
		return Tip{TipDiversify, "Most of your spending sits in very few categories. Categorizing expenses more precisely gives a clearer picture."}
	}

	return Tip{TipPositive, "Your spending looks balanced. Keep tracking to stay on top of your budget."}
}
