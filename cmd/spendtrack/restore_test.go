package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
	"spendtrack/internal/worker"
)

func TestRestoreRecords_RepairedListIsWrittenBack(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	kv.Set(ctx, storage.KeyExpenses, `[
		{"id":"1","description":"legacy","amount":3,"date":"3/10/2025"},
		{"id":"2","amount":1,"date":"3/1/2025","timestamp":1}
	]`)

	clock := core.NewFixedClock(time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC))
	_, syncer, loaded := restoreRecords(ctx, kv, clock, worker.Config{
		Debounce:     5 * time.Millisecond,
		RetryDelay:   10 * time.Millisecond,
		WriteTimeout: time.Second,
	})
	defer syncer.Close()

	if len(loaded) != 1 || loaded[0].ID != "1" {
		t.Fatalf("unexpected loaded records %+v", loaded)
	}

	deadline := time.Now().Add(2 * time.Second)
	for syncer.Stats().Writes == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("repaired list was never saved, stats %+v", syncer.Stats())
		}
		time.Sleep(2 * time.Millisecond)
	}

	raw, _, err := kv.Get(ctx, storage.KeyExpenses)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var saved []core.ExpenseRecord
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != "1" || saved[0].Timestamp == 0 {
		t.Fatalf("expected the repaired record with a derived timestamp, got %+v", saved)
	}
}
