// Package store holds the canonical, ordered list of expense records.
//
// Every mutation is applied to memory first, written through to the KV port
// and rolled back when that write fails. Readers always receive copies.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/storage"
)

type Store struct {
	kv    storage.KV
	clock core.Clock

	// mutateMu serializes mutations end to end, including the durable write.
	mutateMu sync.Mutex

	mu       sync.RWMutex
	records  []core.ExpenseRecord
	lastID   int64
	onChange func()
}

func New(kv storage.KV, clock core.Clock) *Store {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Store{
		kv:      kv,
		clock:   clock,
		records: []core.ExpenseRecord{},
	}
}

// OnChange registers fn to run after every committed mutation, typically a
// debounced resave.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the records in insertion order.
func (s *Store) Snapshot() []core.ExpenseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.ExpenseRecord(nil), s.records...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Get(id string) (core.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.records, id); i >= 0 {
		return s.records[i], nil
	}
	return core.ExpenseRecord{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

func (s *Store) Create(ctx context.Context, in core.ExpenseInput) (core.ExpenseRecord, error) {
	if err := in.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}

	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	now := s.clock.Now()
	date := core.FormatDate(now)
	if strings.TrimSpace(in.Date) != "" {
		date = normalizeDate(in.Date)
	}

	rec := core.ExpenseRecord{
		ID:          s.nextID(now.UnixMilli()),
		Description: strings.TrimSpace(in.Description),
		Amount:      core.RoundAmount(in.Amount),
		Category:    core.NormalizeCategory(in.Category),
		Date:        date,
		Timestamp:   now.UnixMilli(),
	}

	next := append(s.Snapshot(), rec)
	if err := s.commit(ctx, log.OpCreate, next); err != nil {
		return core.ExpenseRecord{}, err
	}

	slog.InfoContext(ctx, "Expense created", log.NewFields().
		WithComponent(log.ComponentStore).
		WithExpense(rec.ID, rec.Amount, rec.Category).ToSlice()...)
	return rec, nil
}

// Update replaces the record with the given id in place. The id is kept and the
// timestamp refreshed; a blank category or date keeps the previous value.
func (s *Store) Update(ctx context.Context, id string, in core.ExpenseInput) (core.ExpenseRecord, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	current := s.Snapshot()
	i := indexOf(current, id)
	if i < 0 {
		return core.ExpenseRecord{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err := in.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}

	old := current[i]
	rec := core.ExpenseRecord{
		ID:          old.ID,
		Description: strings.TrimSpace(in.Description),
		Amount:      core.RoundAmount(in.Amount),
		Category:    old.Category,
		Date:        old.Date,
		Timestamp:   s.clock.Now().UnixMilli(),
	}
	if strings.TrimSpace(in.Category) != "" {
		rec.Category = core.NormalizeCategory(in.Category)
	}
	if strings.TrimSpace(in.Date) != "" {
		rec.Date = normalizeDate(in.Date)
	}

	current[i] = rec
	if err := s.commit(ctx, log.OpUpdate, current); err != nil {
		return core.ExpenseRecord{}, err
	}

	slog.InfoContext(ctx, "Expense updated", log.NewFields().
		WithComponent(log.ComponentStore).
		WithExpense(rec.ID, rec.Amount, rec.Category).ToSlice()...)
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	current := s.Snapshot()
	i := indexOf(current, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	next := append(current[:i:i], current[i+1:]...)
	if err := s.commit(ctx, log.OpDelete, next); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense deleted", log.FieldComponent, log.ComponentStore, log.FieldExpenseID, id)
	return nil
}

// Clear removes the persisted list and then empties memory. A storage failure
// leaves the store untouched.
func (s *Store) Clear(ctx context.Context) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.kv.Remove(ctx, storage.KeyExpenses); err != nil {
		return fmt.Errorf("%w: clear expenses: %w", core.ErrPersistence, err)
	}

	s.mu.Lock()
	s.records = []core.ExpenseRecord{}
	s.mu.Unlock()

	slog.InfoContext(ctx, "All expenses cleared", log.FieldComponent, log.ComponentStore)
	return nil
}

// commit swaps in next optimistically, writes it through and restores the
// previous list if the write fails. Callers hold mutateMu.
func (s *Store) commit(ctx context.Context, op string, next []core.ExpenseRecord) error {
	s.mu.Lock()
	prev := s.records
	s.records = next
	onChange := s.onChange
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		s.mu.Lock()
		s.records = prev
		s.mu.Unlock()

		slog.ErrorContext(ctx, "Expense write failed, change rolled back", log.NewFields().
			WithComponent(log.ComponentStore).
			WithOperation(op).
			WithError(err).ToSlice()...)
		return fmt.Errorf("%w: %s: %w", core.ErrPersistence, op, err)
	}

	if onChange != nil {
		onChange()
	}
	return nil
}

func (s *Store) persist(ctx context.Context, records []core.ExpenseRecord) error {
	if records == nil {
		records = []core.ExpenseRecord{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal expenses: %w", err)
	}
	return s.kv.Set(ctx, storage.KeyExpenses, string(body))
}

// nextID derives an id from the creation instant, bumping it past every id
// already issued so two records created in the same millisecond never collide.
func (s *Store) nextID(ms int64) string {
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.mu.RLock()
	for indexOf(s.records, strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}
	s.mu.RUnlock()
	s.lastID = ms
	return strconv.FormatInt(ms, 10)
}

func indexOf(records []core.ExpenseRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeDate(s string) string {
	t, err := core.ParseDate(s, time.UTC)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return core.FormatDate(t)
}
