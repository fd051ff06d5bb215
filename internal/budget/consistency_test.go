package budget

import (
	"fmt"
	"testing"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/core"
)

// The budget status and the analytics breakdown must agree on what was spent
// per category when they look at the same window.
func TestEvaluate_CategoryTotalsMatchBreakdown(t *testing.T) {
	amounts := []float64{0.1, 0.2, 0.3, 19.99, 33.33, 0.07, 1250.5, 4.45}
	categories := []string{"food", "bills", "transport", "pets", "food", "shopping", "bills", "other"}

	var records []core.ExpenseRecord
	at := time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC)
	for i := 0; !at.After(now); i++ {
		records = append(records, record(fmt.Sprint(i+1), amounts[i%len(amounts)], categories[i%len(categories)], at))
		at = at.Add(7 * time.Hour)
	}

	for _, period := range []core.Period{core.Daily, core.Weekly, core.Monthly} {
		t.Run(string(period), func(t *testing.T) {
			status, err := Evaluate(records, core.Budget{Amount: 1000, Period: period}, now)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			window := analytics.Filter(records, analytics.DateFilter{
				Range: analytics.RangeCustom,
				Start: status.PeriodStart,
				End:   now,
			}, now)
			if len(window) == 0 {
				t.Fatal("expected records inside the window")
			}

			if got := analytics.Total(window); got != status.Total {
				t.Errorf("total: analytics %v, budget %v", got, status.Total)
			}

			seen := 0
			for _, c := range analytics.Breakdown(window) {
				if c.Amount == 0 {
					if _, ok := status.CategoryTotals[c.Category]; ok {
						t.Errorf("%s: budget has a total, breakdown has none", c.Category)
					}
					continue
				}
				seen++
				if got := status.CategoryTotals[c.Category]; got != c.Amount {
					t.Errorf("%s: breakdown %v, budget %v", c.Category, c.Amount, got)
				}
			}
			if seen != len(status.CategoryTotals) {
				t.Errorf("breakdown has %d spending categories, budget has %d", seen, len(status.CategoryTotals))
			}
		})
	}
}
