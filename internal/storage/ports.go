package storage

import (
	"context"
	"errors"
)

// Keys under which the expense tracker persists its state.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "budget"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// KV is the durable key-value port. Values are JSON documents stored as strings.
type KV interface {
	// Get returns the value for key; ok is false when the key was never set or was removed.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
