package budget

import (
	"fmt"
	"slices"

	"spendtrack/internal/core"
)

// Change describes a pending mutation. Old is nil for a new record.
// New carries the amount and category the record will have once committed.
type Change struct {
	Old *core.ExpenseRecord
	New core.ExpenseRecord
}

// Projection is the budget state a Change would produce.
type Projection struct {
	Period        core.Period
	Total         float64
	Cap           float64
	Category      string
	CategoryTotal float64
	CategoryLimit float64

	OverTotal    bool
	OverCategory bool
}

// Project applies ch to status without touching any state. The committed
// record is always stamped with the current instant, so the new amount lands
// in the window; the old amount is only removed when the old record was
// itself inside the window.
func Project(status core.BudgetStatus, b core.Budget, ch Change) Projection {
	var total core.Sum
	total.Add(status.Total)

	category := core.NormalizeCategory(ch.New.Category)
	var catTotal core.Sum
	catTotal.Add(status.CategoryTotals[category])

	if ch.Old != nil && ch.Old.Timestamp >= status.PeriodStart.UnixMilli() {
		total.Sub(ch.Old.Amount)
		if ch.Old.Category == category {
			catTotal.Sub(ch.Old.Amount)
		}
	}
	total.Add(ch.New.Amount)
	catTotal.Add(ch.New.Amount)

	p := Projection{
		Period:        b.Period,
		Total:         total.Value(),
		Cap:           b.Amount,
		Category:      category,
		CategoryTotal: catTotal.Value(),
		OverTotal:     total.GreaterThan(b.Amount),
	}
	if limit, ok := b.CategoryLimits[category]; ok {
		p.CategoryLimit = limit
		p.OverCategory = catTotal.GreaterThan(limit)
	}
	return p
}

// RequiresConfirmation reports whether the change pushes the period or its
// category over a cap.
func (p Projection) RequiresConfirmation() bool {
	return p.OverTotal || p.OverCategory
}

// Warning returns the confirmation title and message for the projection.
func (p Projection) Warning() (title, message string) {
	if p.OverTotal {
		return "Budget Warning", fmt.Sprintf(
			"This expense will bring your %s spending to %s, over your budget of %s. Do you want to continue?",
			p.Period, formatMoney(p.Total), formatMoney(p.Cap))
	}
	if p.OverCategory {
		return "Category Limit Warning", fmt.Sprintf(
			"This expense will bring %s spending to %s, over its limit of %s. Do you want to continue?",
			p.Category, formatMoney(p.CategoryTotal), formatMoney(p.CategoryLimit))
	}
	return "", ""
}

func orderedCategories(limits map[string]float64) []string {
	out := make([]string, 0, len(limits))
	for _, c := range core.KnownCategories() {
		if _, ok := limits[c]; ok {
			out = append(out, c)
		}
	}
	var rest []string
	for c := range limits {
		if !core.IsKnownCategory(c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}
