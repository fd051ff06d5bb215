package main

import (
	"context"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
	"spendtrack/internal/store"
	"spendtrack/internal/worker"
)

// restoreRecords builds the record store with its background saver and loads
// the persisted list. The saver is subscribed before Load so a list repaired
// during loading is written back.
func restoreRecords(ctx context.Context, kv storage.KV, clock core.Clock, cfg worker.Config) (*store.Store, *worker.Synchronizer, []core.ExpenseRecord) {
	records := store.New(kv, clock)
	syncer := worker.NewSynchronizer(records, cfg)
	records.OnChange(syncer.Schedule)
	return records, syncer, records.Load(ctx)
}
