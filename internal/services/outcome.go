package services

import (
	"context"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
)

type Status string

const (
	StatusCommitted Status = "committed"
	StatusCancelled Status = "cancelled"
)

// Warning is the prompt shown before a change that would break a budget cap.
type Warning struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Outcome is the result of a mutation that may need confirmation. A cancelled
// outcome is not an error: nothing was changed and the caller decides whether
// to tell the user.
type Outcome struct {
	Status  Status             `json:"status"`
	Record  core.ExpenseRecord `json:"record"`
	Warning *Warning           `json:"warning,omitempty"`
}

func (o Outcome) Cancelled() bool {
	return o.Status == StatusCancelled
}

// Confirmer asks the user whether to continue. Returning false cancels the
// mutation; an error aborts it.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, title, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) (bool, error) {
	return f(ctx, title, message)
}

var (
	// AlwaysConfirm accepts every warning.
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	// NeverConfirm declines every warning.
	NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string, string) (bool, error) { return false, nil })
)

// Notifier receives budget alerts after a committed change leaves the budget
// exceeded. *amqp.Client implements it.
type Notifier interface {
	PublishBudgetAlert(ctx context.Context, msg amqp.BudgetAlertMessage) error
}
