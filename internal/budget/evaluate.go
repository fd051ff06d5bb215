package budget

import (
	"fmt"
	"time"

	"spendtrack/internal/core"
)

// Evaluate computes the spend of the current period window against b.
// Records count toward the window when their timestamp is at or after the
// window start.
func Evaluate(records []core.ExpenseRecord, b core.Budget, now time.Time) (core.BudgetStatus, error) {
	start, err := PeriodStart(b.Period, now)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	from := start.UnixMilli()

	var total core.Sum
	byCategory := make(map[string]*core.Sum)
	for _, r := range records {
		if r.Timestamp < from {
			continue
		}
		total.Add(r.Amount)
		s, ok := byCategory[r.Category]
		if !ok {
			s = &core.Sum{}
			byCategory[r.Category] = s
		}
		s.Add(r.Amount)
	}

	status := core.BudgetStatus{
		Total:          total.Value(),
		CategoryTotals: make(map[string]float64, len(byCategory)),
		PeriodStart:    start,
	}
	for c, s := range byCategory {
		status.CategoryTotals[c] = s.Value()
	}

	status.Remaining = remaining(b.Amount, status.Total)
	status.IsOverBudget = total.GreaterThan(b.Amount)
	if !status.IsOverBudget {
		for c, limit := range b.CategoryLimits {
			if s, ok := byCategory[c]; ok && s.GreaterThan(limit) {
				status.IsOverBudget = true
				break
			}
		}
	}
	return status, nil
}

// OverLimitCategories lists the categories whose window total exceeds their
// configured limit, in KnownCategories order followed by the rest sorted.
func OverLimitCategories(status core.BudgetStatus, b core.Budget) []string {
	var over []string
	for _, c := range orderedCategories(b.CategoryLimits) {
		if status.CategoryTotals[c] > b.CategoryLimits[c] {
			over = append(over, c)
		}
	}
	return over
}

func remaining(amount, total float64) float64 {
	var r core.Sum
	r.Add(amount)
	r.Sub(total)
	if v := r.Value(); v > 0 {
		return v
	}
	return 0
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
