package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/storage"
)

// Store holds the configured budget, if any. A budget is only ever replaced
// wholesale.
type Store struct {
	kv storage.KV

	mu      sync.RWMutex
	current *core.Budget
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted budget. Missing or unreadable data leaves no budget
// configured; a corrupt payload is removed from storage.
func (s *Store) Load(ctx context.Context) (core.Budget, bool) {
	b, ok := s.read(ctx)

	s.mu.Lock()
	if ok {
		s.current = &b
	} else {
		s.current = nil
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Budget loaded", log.FieldComponent, log.ComponentBudget, "configured", ok)
	return b.Clone(), ok
}

func (s *Store) read(ctx context.Context) (core.Budget, bool) {
	raw, found, err := s.kv.Get(ctx, storage.KeyBudget)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read budget", log.NewFields().
			WithComponent(log.ComponentBudget).
			WithOperation(log.OpLoad).
			WithError(err).ToSlice()...)
		return core.Budget{}, false
	}
	if !found || strings.TrimSpace(raw) == "" {
		return core.Budget{}, false
	}

	var b core.Budget
	err = json.Unmarshal([]byte(raw), &b)
	if err == nil {
		err = b.Validate()
	} else {
		err = fmt.Errorf("decode budget: %w", err)
	}
	if err != nil {
		slog.WarnContext(ctx, "Corrupt budget payload discarded", log.NewFields().
			WithComponent(log.ComponentBudget).
			WithOperation(log.OpLoad).
			WithError(err).ToSlice()...)
		if err := s.kv.Remove(ctx, storage.KeyBudget); err != nil {
			slog.ErrorContext(ctx, "Failed to clear corrupt budget payload",
				log.FieldComponent, log.ComponentBudget, log.FieldError, err.Error())
		}
		return core.Budget{}, false
	}
	return b, true
}

// Get returns a copy of the current budget and whether one is configured.
func (s *Store) Get() (core.Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return core.Budget{}, false
	}
	return s.current.Clone(), true
}

// Set validates b, rounds its amounts and writes it through. Memory only
// changes once storage accepted the new budget.
func (s *Store) Set(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b = normalize(b)

	body, err := json.Marshal(b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("marshal budget: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyBudget, string(body)); err != nil {
		return core.Budget{}, fmt.Errorf("%w: save budget: %w", core.ErrPersistence, err)
	}

	s.mu.Lock()
	s.current = &b
	s.mu.Unlock()

	slog.InfoContext(ctx, "Budget saved",
		log.FieldComponent, log.ComponentBudget,
		log.FieldAmount, b.Amount,
		log.FieldPeriod, string(b.Period),
		"category_limits", len(b.CategoryLimits))
	return b.Clone(), nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, storage.KeyBudget); err != nil {
		return fmt.Errorf("%w: clear budget: %w", core.ErrPersistence, err)
	}
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	slog.InfoContext(ctx, "Budget cleared", log.FieldComponent, log.ComponentBudget)
	return nil
}

func normalize(b core.Budget) core.Budget {
	out := core.Budget{
		Amount: core.RoundAmount(b.Amount),
		Period: b.Period,
	}
	if len(b.CategoryLimits) > 0 {
		out.CategoryLimits = make(map[string]float64, len(b.CategoryLimits))
		for c, limit := range b.CategoryLimits {
			out.CategoryLimits[core.NormalizeCategory(c)] = core.RoundAmount(limit)
		}
	}
	return out
}
