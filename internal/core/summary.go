package core

import "time"

// BudgetStatus is the spend of the current period window against a Budget.
// It is derived on every read and never persisted.
type BudgetStatus struct {
	Total          float64            `json:"total"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
	Remaining      float64            `json:"remaining"`
	IsOverBudget   bool               `json:"isOverBudget"`
	PeriodStart    time.Time          `json:"periodStart"`
}

// CategoryAmount is an amount aggregated by category with its share of the total.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Percent  int     `json:"percent"`
}
