package budget

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// Friday 14 March 2025, mid-morning.
var now = time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

func record(id string, amount float64, category string, at time.Time) core.ExpenseRecord {
	return core.ExpenseRecord{
		ID:          id,
		Description: "expense " + id,
		Amount:      amount,
		Category:    category,
		Date:        core.FormatDate(at),
		Timestamp:   at.UnixMilli(),
	}
}

func TestPeriodStart(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	tests := []struct {
		name   string
		period core.Period
		now    time.Time
		want   time.Time
	}{
		{"daily", core.Daily, now, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"weekly from friday", core.Weekly, now, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"weekly on sunday", core.Weekly, time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"weekly across month", core.Weekly, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC)},
		{"monthly", core.Monthly, now, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"monthly in location", core.Monthly, time.Date(2025, 4, 1, 0, 30, 0, 0, rome), time.Date(2025, 4, 1, 0, 0, 0, 0, rome)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodStart(tt.period, tt.now)
			if err != nil {
				t.Fatalf("PeriodStart failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("PeriodStart() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := PeriodStart("yearly", now); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEvaluate_MonthlyExample(t *testing.T) {
	b := core.Budget{Amount: 5000, Period: core.Monthly}
	records := []core.ExpenseRecord{
		record("1", 3000, "bills", now.AddDate(0, 0, -10)),
		record("2", 1500, "food", now.AddDate(0, 0, -1)),
		record("3", 9999, "food", now.AddDate(0, -1, 0)), // last month
	}

	status, err := Evaluate(records, b, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if status.Total != 4500 || status.Remaining != 500 || status.IsOverBudget {
		t.Fatalf("expected total 4500, remaining 500, not over; got %+v", status)
	}
	if status.CategoryTotals["bills"] != 3000 || status.CategoryTotals["food"] != 1500 {
		t.Errorf("unexpected category totals %v", status.CategoryTotals)
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name          string
		budget        core.Budget
		records       []core.ExpenseRecord
		wantTotal     float64
		wantRemaining float64
		wantOver      bool
	}{
		{
			name:          "empty",
			budget:        core.Budget{Amount: 100, Period: core.Daily},
			wantRemaining: 100,
		},
		{
			name:   "over cap clamps remaining",
			budget: core.Budget{Amount: 100, Period: core.Daily},
			records: []core.ExpenseRecord{
				record("1", 80, "food", now),
				record("2", 30.5, "food", now),
			},
			wantTotal: 110.5,
			wantOver:  true,
		},
		{
			name:   "exactly at cap is not over",
			budget: core.Budget{Amount: 100, Period: core.Daily},
			records: []core.ExpenseRecord{
				record("1", 60.1, "food", now),
				record("2", 39.9, "food", now),
			},
			wantTotal: 100,
		},
		{
			name:   "category over its limit",
			budget: core.Budget{Amount: 1000, Period: core.Weekly, CategoryLimits: map[string]float64{"food": 50}},
			records: []core.ExpenseRecord{
				record("1", 60, "food", now.AddDate(0, 0, -2)),
				record("2", 10, "transport", now),
			},
			wantTotal:     70,
			wantRemaining: 930,
			wantOver:      true,
		},
		{
			name:   "record before sunday excluded from week",
			budget: core.Budget{Amount: 100, Period: core.Weekly},
			records: []core.ExpenseRecord{
				record("1", 500, "food", time.Date(2025, 3, 8, 23, 59, 0, 0, time.UTC)),
				record("2", 20, "food", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)),
			},
			wantTotal:     20,
			wantRemaining: 80,
		},
		{
			name:   "unknown category is its own bucket",
			budget: core.Budget{Amount: 100, Period: core.Daily},
			records: []core.ExpenseRecord{
				record("1", 12.25, "pets", now),
			},
			wantTotal:     12.25,
			wantRemaining: 87.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := Evaluate(tt.records, tt.budget, now)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if status.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", status.Total, tt.wantTotal)
			}
			if status.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %v, want %v", status.Remaining, tt.wantRemaining)
			}
			if status.IsOverBudget != tt.wantOver {
				t.Errorf("IsOverBudget = %v, want %v", status.IsOverBudget, tt.wantOver)
			}

			var sum core.Sum
			for _, v := range status.CategoryTotals {
				sum.Add(v)
			}
			if sum.Value() != status.Total {
				t.Errorf("category totals sum to %v, total is %v", sum.Value(), status.Total)
			}
		})
	}
}

func TestProject(t *testing.T) {
	b := core.Budget{Amount: 5000, Period: core.Monthly, CategoryLimits: map[string]float64{"food": 2000}}
	inWindow := record("1", 1500, "food", now.AddDate(0, 0, -1))
	outOfWindow := record("2", 700, "food", now.AddDate(0, -2, 0))
	records := []core.ExpenseRecord{
		record("0", 3000, "bills", now.AddDate(0, 0, -5)),
		inWindow,
		outOfWindow,
	}
	status, err := Evaluate(records, b, now)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	tests := []struct {
		name         string
		change       Change
		wantTotal    float64
		wantCategory float64
		wantConfirm  bool
	}{
		{
			name:         "new record over cap",
			change:       Change{New: core.ExpenseRecord{Amount: 600, Category: "transport"}},
			wantTotal:    5100,
			wantCategory: 600,
			wantConfirm:  true,
		},
		{
			name:         "new record within cap",
			change:       Change{New: core.ExpenseRecord{Amount: 400, Category: "transport"}},
			wantTotal:    4900,
			wantCategory: 400,
		},
		{
			name:         "new record over category limit",
			change:       Change{New: core.ExpenseRecord{Amount: 501, Category: "food"}},
			wantTotal:    5001,
			wantCategory: 2001,
			wantConfirm:  true,
		},
		{
			name:         "update within window replaces old amount",
			change:       Change{Old: &inWindow, New: core.ExpenseRecord{Amount: 1900, Category: "food"}},
			wantTotal:    4900,
			wantCategory: 1900,
		},
		{
			name:         "update moving category",
			change:       Change{Old: &inWindow, New: core.ExpenseRecord{Amount: 1500, Category: "shopping"}},
			wantTotal:    4500,
			wantCategory: 1500,
		},
		{
			name:         "update of record outside window adds full amount",
			change:       Change{Old: &outOfWindow, New: core.ExpenseRecord{Amount: 700, Category: "food"}},
			wantTotal:    5200,
			wantCategory: 2200,
			wantConfirm:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Project(status, b, tt.change)
			if p.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", p.Total, tt.wantTotal)
			}
			if p.CategoryTotal != tt.wantCategory {
				t.Errorf("CategoryTotal = %v, want %v", p.CategoryTotal, tt.wantCategory)
			}
			if p.RequiresConfirmation() != tt.wantConfirm {
				t.Errorf("RequiresConfirmation() = %v, want %v", p.RequiresConfirmation(), tt.wantConfirm)
			}
		})
	}
}

func TestProjectionWarning(t *testing.T) {
	title, msg := Projection{Period: core.Monthly, Total: 5100, Cap: 5000, OverTotal: true}.Warning()
	if title != "Budget Warning" || !strings.Contains(msg, "5100.00") || !strings.Contains(msg, "monthly") {
		t.Errorf("unexpected total warning %q / %q", title, msg)
	}

	title, msg = Projection{Category: "food", CategoryTotal: 210, CategoryLimit: 200, OverCategory: true}.Warning()
	if title != "Category Limit Warning" || !strings.Contains(msg, "food") {
		t.Errorf("unexpected category warning %q / %q", title, msg)
	}

	if title, _ := (Projection{}).Warning(); title != "" {
		t.Errorf("expected no warning, got %q", title)
	}
}

func TestOverLimitCategories(t *testing.T) {
	b := core.Budget{Amount: 1000, Period: core.Daily, CategoryLimits: map[string]float64{
		"pets": 10, "food": 10, "transport": 100,
	}}
	status := core.BudgetStatus{CategoryTotals: map[string]float64{"pets": 11, "food": 20, "transport": 5}}

	got := OverLimitCategories(status, b)
	if len(got) != 2 || got[0] != "food" || got[1] != "pets" {
		t.Fatalf("expected [food pets], got %v", got)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := NewStore(kv)

	if _, ok := s.Load(ctx); ok {
		t.Fatalf("expected no budget configured")
	}

	saved, err := s.Set(ctx, core.Budget{Amount: 99.999, Period: core.Weekly, CategoryLimits: map[string]float64{"food": 10}})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if saved.Amount != 100 {
		t.Errorf("expected amount rounded to 100, got %v", saved.Amount)
	}

	reloaded, ok := NewStore(kv).Load(ctx)
	if !ok || reloaded.Amount != 100 || reloaded.Period != core.Weekly || reloaded.CategoryLimits["food"] != 10 {
		t.Fatalf("expected budget to survive reload, got %+v (ok=%v)", reloaded, ok)
	}

	got, _ := s.Get()
	got.CategoryLimits["food"] = 1
	if again, _ := s.Get(); again.CategoryLimits["food"] != 10 {
		t.Fatalf("Get must return a copy")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := s.Get(); ok {
		t.Fatalf("expected no budget after clear")
	}
	if _, found, _ := kv.Get(ctx, storage.KeyBudget); found {
		t.Fatalf("expected budget key removed")
	}
}

func TestStore_SetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		budget  core.Budget
		wantErr error
	}{
		{"zero amount", core.Budget{Amount: 0, Period: core.Daily}, core.ErrInvalidAmount},
		{"sub-cent amount", core.Budget{Amount: 0.001, Period: core.Monthly}, core.ErrInvalidAmount},
		{"unknown period", core.Budget{Amount: 10, Period: "yearly"}, core.ErrInvalidPeriod},
		{"negative limit", core.Budget{Amount: 10, Period: core.Daily, CategoryLimits: map[string]float64{"food": -1}}, core.ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			s := NewStore(kv)
			if _, err := s.Set(context.Background(), tt.budget); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if kv.Writes() != 0 {
				t.Fatalf("invalid budget must not be written")
			}
		})
	}
}

func TestStore_WriteFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := NewStore(kv)
	s.Set(ctx, core.Budget{Amount: 50, Period: core.Daily})

	kv.Fail(storage.KeyBudget, errors.New("disk full"))
	if _, err := s.Set(ctx, core.Budget{Amount: 70, Period: core.Monthly}); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := s.Clear(ctx); !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if b, ok := s.Get(); !ok || b.Amount != 50 {
		t.Fatalf("expected previous budget kept, got %+v", b)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`[1,2]`,
		`{"amount":-5,"period":"daily"}`,
		`{"amount":5,"period":"hourly"}`,
		`{"amount":0.001,"period":"daily"}`,
	} {
		t.Run(raw, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemoryKV()
			kv.Set(ctx, storage.KeyBudget, raw)

			if _, ok := NewStore(kv).Load(ctx); ok {
				t.Fatalf("expected corrupt budget to load as none")
			}
			if _, found, _ := kv.Get(ctx, storage.KeyBudget); found {
				t.Fatalf("expected corrupt budget key removed")
			}
		})
	}
}
