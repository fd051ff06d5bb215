// Package services orchestrates the record store, the budget evaluator and
// the analytics engine behind one API used by the HTTP layer.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/analytics"
	"spendtrack/internal/budget"
	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/store"
)

// ExpenseService guards mutations with a budget projection and publishes an
// alert when a committed change leaves the budget exceeded.
type ExpenseService struct {
	records    *store.Store
	budgets    *budget.Store
	clock      core.Clock
	notifier   Notifier
	thresholds analytics.Thresholds

	// mu serializes every mutation from projection to commit, so two changes
	// can never both be checked against the same pre-state.
	mu sync.Mutex
}

type Option func(*ExpenseService)

// WithNotifier enables budget alerts. Without it alerts are only logged.
func WithNotifier(n Notifier) Option {
	return func(s *ExpenseService) { s.notifier = n }
}

func WithThresholds(th analytics.Thresholds) Option {
	return func(s *ExpenseService) { s.thresholds = th }
}

func WithClock(c core.Clock) Option {
	return func(s *ExpenseService) { s.clock = c }
}

func NewExpenseService(records *store.Store, budgets *budget.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		records:    records,
		budgets:    budgets,
		clock:      core.SystemClock{},
		thresholds: analytics.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock, used by callers to resolve relative date filters.
func (s *ExpenseService) Now() time.Time {
	return s.clock.Now()
}

// Count returns the number of stored records.
func (s *ExpenseService) Count() int {
	return s.records.Len()
}

func (s *ExpenseService) Expenses() []core.ExpenseRecord {
	return s.records.Snapshot()
}

func (s *ExpenseService) Expense(id string) (core.ExpenseRecord, error) {
	return s.records.Get(id)
}

// Add creates a record. When the new amount would push the period or its
// category over a cap, confirm is asked first; a decline leaves every state
// untouched and yields a cancelled Outcome.
func (s *ExpenseService) Add(ctx context.Context, in core.ExpenseInput, confirm Confirmer) (Outcome, error) {
	if err := in.Validate(); err != nil {
		return Outcome{}, err
	}
	out, err := s.add(ctx, in, confirm)
	if err == nil && !out.Cancelled() {
		s.checkBudget(ctx, out.Record.ID)
	}
	return out, err
}

func (s *ExpenseService) add(ctx context.Context, in core.ExpenseInput, confirm Confirmer) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	change := budget.Change{New: core.ExpenseRecord{
		Amount:   core.RoundAmount(in.Amount),
		Category: core.NormalizeCategory(in.Category),
	}}
	if out, proceed, err := s.confirm(ctx, change, confirm); !proceed {
		return out, err
	}

	rec, err := s.records.Create(ctx, in)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: StatusCommitted, Record: rec}, nil
}

// Update replaces a record, asking confirm first when the projected totals
// break a cap. The old amount leaves its old category and the new amount
// lands in the new one.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput, confirm Confirmer) (Outcome, error) {
	out, err := s.update(ctx, id, in, confirm)
	if err == nil && !out.Cancelled() {
		s.checkBudget(ctx, out.Record.ID)
	}
	return out, err
}

func (s *ExpenseService) update(ctx context.Context, id string, in core.ExpenseInput, confirm Confirmer) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.records.Get(id)
	if err != nil {
		return Outcome{}, err
	}
	if err := in.Validate(); err != nil {
		return Outcome{}, err
	}

	category := old.Category
	if strings.TrimSpace(in.Category) != "" {
		category = core.NormalizeCategory(in.Category)
	}
	change := budget.Change{
		Old: &old,
		New: core.ExpenseRecord{Amount: core.RoundAmount(in.Amount), Category: category},
	}
	if out, proceed, err := s.confirm(ctx, change, confirm); !proceed {
		return out, err
	}

	rec, err := s.records.Update(ctx, id, in)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: StatusCommitted, Record: rec}, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Delete(ctx, id)
}

func (s *ExpenseService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Clear(ctx)
}

func (s *ExpenseService) Budget() (core.Budget, bool) {
	return s.budgets.Get()
}

func (s *ExpenseService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Set(ctx, b)
}

func (s *ExpenseService) ClearBudget(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Clear(ctx)
}

// Status evaluates the configured budget. ok is false when none is set.
func (s *ExpenseService) Status() (status core.BudgetStatus, ok bool, err error) {
	b, ok := s.budgets.Get()
	if !ok {
		return core.BudgetStatus{}, false, nil
	}
	status, err = budget.Evaluate(s.records.Snapshot(), b, s.clock.Now())
	if err != nil {
		return core.BudgetStatus{}, false, err
	}
	return status, true, nil
}

func (s *ExpenseService) Analytics(f analytics.DateFilter) analytics.Report {
	return analytics.Build(s.records.Snapshot(), f, s.clock.Now(), s.thresholds)
}

// Summary is the dashboard view: budget, its status and the analytics report
// computed from one snapshot.
type Summary struct {
	Budget *core.Budget       `json:"budget,omitempty"`
	Status *core.BudgetStatus `json:"status,omitempty"`
	Report analytics.Report   `json:"report"`
}

func (s *ExpenseService) Summary(f analytics.DateFilter) (Summary, error) {
	records := s.records.Snapshot()
	now := s.clock.Now()

	sum := Summary{Report: analytics.Build(records, f, now, s.thresholds)}
	if b, ok := s.budgets.Get(); ok {
		status, err := budget.Evaluate(records, b, now)
		if err != nil {
			return Summary{}, err
		}
		sum.Budget, sum.Status = &b, &status
	}
	return sum, nil
}

// confirm projects change against the current budget. proceed is false when
// the caller must stop, either because the user declined or confirm failed.
func (s *ExpenseService) confirm(ctx context.Context, change budget.Change, confirm Confirmer) (out Outcome, proceed bool, err error) {
	b, ok := s.budgets.Get()
	if !ok {
		return Outcome{}, true, nil
	}
	status, err := budget.Evaluate(s.records.Snapshot(), b, s.clock.Now())
	if err != nil {
		return Outcome{}, false, err
	}
	p := budget.Project(status, b, change)
	if !p.RequiresConfirmation() {
		return Outcome{}, true, nil
	}

	title, message := p.Warning()
	warning := &Warning{Title: title, Message: message}
	if confirm == nil {
		confirm = NeverConfirm
	}

	accepted, err := confirm.Confirm(ctx, title, message)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("confirm budget warning: %w", err)
	}
	if !accepted {
		slog.InfoContext(ctx, "Change cancelled at budget warning", log.NewFields().
			WithComponent(log.ComponentServices).
			WithOperation(log.OpConfirm).ToSlice()...)
		return Outcome{Status: StatusCancelled, Warning: warning}, false, nil
	}
	return Outcome{}, true, nil
}

// checkBudget publishes an alert when the committed state is over budget.
// Failures are logged only; the change itself already succeeded.
func (s *ExpenseService) checkBudget(ctx context.Context, expenseID string) {
	b, ok := s.budgets.Get()
	if !ok {
		return
	}
	status, err := budget.Evaluate(s.records.Snapshot(), b, s.clock.Now())
	if err != nil || !status.IsOverBudget {
		return
	}

	msg := amqp.BudgetAlertMessage{
		Period:         string(b.Period),
		PeriodStart:    status.PeriodStart,
		Total:          status.Total,
		Cap:            b.Amount,
		OverBy:         max(0, core.RoundAmount(status.Total-b.Amount)),
		OverCategories: budget.OverLimitCategories(status, b),
		ExpenseID:      expenseID,
		Timestamp:      s.clock.Now().UTC().Truncate(time.Millisecond),
	}

	if s.notifier == nil {
		slog.WarnContext(ctx, "Budget exceeded, no notifier configured",
			log.FieldComponent, log.ComponentServices,
			log.FieldPeriod, msg.Period,
			"total", msg.Total,
			"cap", msg.Cap)
		return
	}
	if err := s.notifier.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert", log.NewFields().
			WithComponent(log.ComponentServices).
			WithError(err).ToSlice()...)
	}
}

// Close releases the notifier when it holds a connection.
func (s *ExpenseService) Close() error {
	if c, ok := s.notifier.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close notifier: %w", err)
		}
	}
	return nil
}
