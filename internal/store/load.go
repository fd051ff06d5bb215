package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
	"spendtrack/internal/storage"
)

// storedRecord mirrors the persisted shape with every field optional so that
// legacy or hand-edited entries can be inspected before they are accepted.
type storedRecord struct {
	ID          *string  `json:"id"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Date        *string  `json:"date"`
	Timestamp   *float64 `json:"timestamp"`
}

// Load replaces the in-memory list with the persisted one. It never fails:
// unreadable storage yields an empty list, a corrupt payload is removed from
// storage, and malformed records are dropped one by one.
func (s *Store) Load(ctx context.Context) []core.ExpenseRecord {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	records, repaired := s.read(ctx)

	var lastID int64
	for _, r := range records {
		if n, err := strconv.ParseInt(r.ID, 10, 64); err == nil && n > lastID {
			lastID = n
		}
	}

	s.mu.Lock()
	s.records = records
	if lastID > s.lastID {
		s.lastID = lastID
	}
	onChange := s.onChange
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expenses loaded",
		log.FieldComponent, log.ComponentStore,
		log.FieldRecordCount, len(records),
		"repaired", repaired)

	if repaired && onChange != nil {
		onChange()
	}
	return append([]core.ExpenseRecord(nil), records...)
}

func (s *Store) read(ctx context.Context) ([]core.ExpenseRecord, bool) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyExpenses)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read expenses, starting empty", log.NewFields().
			WithComponent(log.ComponentStore).
			WithOperation(log.OpLoad).
			WithError(err).ToSlice()...)
		return []core.ExpenseRecord{}, false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []core.ExpenseRecord{}, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.WarnContext(ctx, "Corrupt expenses payload discarded", log.NewFields().
			WithComponent(log.ComponentStore).
			WithOperation(log.OpLoad).
			WithError(err).ToSlice()...)
		if err := s.kv.Remove(ctx, storage.KeyExpenses); err != nil {
			slog.ErrorContext(ctx, "Failed to clear corrupt expenses payload",
				log.FieldComponent, log.ComponentStore, log.FieldError, err.Error())
		}
		return []core.ExpenseRecord{}, false
	}

	loc := s.clock.Now().Location()
	records := make([]core.ExpenseRecord, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	repaired := false

	for i, item := range items {
		rec, derived, err := decodeRecord(item, loc)
		if err == nil {
			if _, dup := seen[rec.ID]; dup {
				err = fmt.Errorf("duplicate id %s", rec.ID)
			}
		}
		if err != nil {
			slog.WarnContext(ctx, "Dropping malformed expense record",
				log.FieldComponent, log.ComponentStore,
				"index", i,
				log.FieldError, err.Error())
			repaired = true
			continue
		}
		if derived {
			repaired = true
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}
	return records, repaired
}

// maxTimestamp is the last millisecond of year 9999. Larger values cannot be
// formatted as dates and would overflow int64 arithmetic on the way.
var maxTimestamp = time.Date(9999, time.December, 31, 23, 59, 59, 999e6, time.UTC).UnixMilli()

// decodeRecord validates one persisted entry. derived reports whether the
// timestamp had to be reconstructed from the date.
func decodeRecord(item json.RawMessage, loc *time.Location) (core.ExpenseRecord, bool, error) {
	var sr storedRecord
	if err := json.Unmarshal(item, &sr); err != nil {
		return core.ExpenseRecord{}, false, err
	}
	switch {
	case sr.ID == nil || strings.TrimSpace(*sr.ID) == "":
		return core.ExpenseRecord{}, false, fmt.Errorf("missing id")
	case sr.Description == nil || strings.TrimSpace(*sr.Description) == "":
		return core.ExpenseRecord{}, false, fmt.Errorf("missing description")
	case sr.Amount == nil || !core.ValidAmount(*sr.Amount):
		return core.ExpenseRecord{}, false, fmt.Errorf("missing or invalid amount")
	case sr.Date == nil || strings.TrimSpace(*sr.Date) == "":
		return core.ExpenseRecord{}, false, fmt.Errorf("missing date")
	}

	rec := core.ExpenseRecord{
		ID:          *sr.ID,
		Description: *sr.Description,
		Amount:      *sr.Amount,
		Category:    core.CategoryOther,
		Date:        *sr.Date,
	}
	if sr.Category != nil {
		rec.Category = core.NormalizeCategory(*sr.Category)
	}

	if sr.Timestamp != nil && *sr.Timestamp > float64(maxTimestamp) {
		return core.ExpenseRecord{}, false, fmt.Errorf("timestamp %g out of range", *sr.Timestamp)
	}
	if sr.Timestamp != nil && *sr.Timestamp > 0 {
		rec.Timestamp = int64(*sr.Timestamp)
		return rec, false, nil
	}

	day, err := core.ParseDate(rec.Date, loc)
	if err != nil {
		return core.ExpenseRecord{}, false, fmt.Errorf("no timestamp and unparseable date: %w", err)
	}
	rec.Timestamp = day.UnixMilli()
	return rec, true, nil
}

// Save writes the current list through to storage. It takes the mutation lock
// so a background resave can never interleave with, or overwrite, a direct write.
func (s *Store) Save(ctx context.Context) error {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	if err := s.persist(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrPersistence, log.OpSave, err)
	}
	return nil
}
