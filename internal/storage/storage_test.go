package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, KeyExpenses); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, KeyExpenses, `[]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, KeyExpenses, `[{"id":"1"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, KeyExpenses)
	if err != nil || !ok || v != `[{"id":"1"}]` {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}
	if err := kv.Remove(ctx, KeyExpenses); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, KeyExpenses); ok {
		t.Fatal("key still present after remove")
	}
	if err := kv.Remove(ctx, KeyBudget); err != nil {
		t.Fatalf("removing a missing key should succeed: %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestMemoryKVFailureInjection(t *testing.T) {
	kv := NewMemoryKV()
	boom := errors.New("disk full")
	kv.Fail(KeyExpenses, boom)

	if err := kv.Set(context.Background(), KeyExpenses, "x"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if err := kv.Set(context.Background(), KeyBudget, "x"); err != nil {
		t.Fatalf("other keys must still work: %v", err)
	}
	kv.Fail(KeyExpenses, nil)
	if err := kv.Set(context.Background(), KeyExpenses, "x"); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if kv.Writes() != 2 {
		t.Fatalf("writes = %d", kv.Writes())
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kv.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	exerciseKV(t, kv)

	// Reopening runs migrations again without error and keeps data.
	if err := kv.Set(context.Background(), KeyBudget, `{"amount":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	kv.Close()

	again, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	v, ok, err := again.Get(context.Background(), KeyBudget)
	if err != nil || !ok || v != `{"amount":1}` {
		t.Fatalf("after reopen get = %q, %v, %v", v, ok, err)
	}
}

func TestSQLiteKVAfterClose(t *testing.T) {
	ctx := context.Background()
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if _, _, err := kv.Get(ctx, KeyExpenses); !errors.Is(err, ErrClosed) {
		t.Fatalf("get after close: %v", err)
	}
	if err := kv.Set(ctx, KeyExpenses, `[]`); !errors.Is(err, ErrClosed) {
		t.Fatalf("set after close: %v", err)
	}
	if err := kv.Remove(ctx, KeyExpenses); !errors.Is(err, ErrClosed) {
		t.Fatalf("remove after close: %v", err)
	}
}

func TestCachedKV(t *testing.T) {
	exerciseKV(t, NewCachedKV(NewMemoryKV(), 8, time.Minute))
}

func TestCachedKVServesReadsAndDropsOnFailure(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryKV()
	kv := NewCachedKV(backend, 8, time.Minute)

	if err := kv.Set(ctx, KeyExpenses, "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Reads keep working from cache while the backend fails.
	backend.Fail(KeyExpenses, errors.New("io"))
	if v, ok, err := kv.Get(ctx, KeyExpenses); err != nil || !ok || v != "v1" {
		t.Fatalf("cached get = %q, %v, %v", v, ok, err)
	}

	// A failed write must not leave the unsaved value visible.
	if err := kv.Set(ctx, KeyExpenses, "v2"); err == nil {
		t.Fatal("expected write error")
	}
	if _, _, err := kv.Get(ctx, KeyExpenses); err == nil {
		t.Fatal("expected cache miss to reach failing backend")
	}

	backend.Fail(KeyExpenses, nil)
	if v, _, _ := kv.Get(ctx, KeyExpenses); v != "v1" {
		t.Fatalf("expected backend value v1, got %q", v)
	}
	if kv.Stats().Hits == 0 {
		t.Fatal("expected at least one cache hit")
	}
}
