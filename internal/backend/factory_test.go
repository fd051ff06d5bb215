package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/config"
	"spendtrack/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	_, err := FromAppConfig(&config.Config{DataBackend: "postgres"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "[sqlite memory]") {
		t.Errorf("error should list valid backends: %v", err)
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", CacheSize: 3, CacheTTL: time.Second})
	if err != nil {
		t.Fatalf("FromAppConfig failed: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.CacheSize != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory(nil)

	tests := []struct {
		name       string
		config     Config
		wantCached bool
		wantErr    bool
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "memory cached", config: Config{Type: MemoryBackend, CacheSize: 4, CacheTTL: time.Minute}, wantCached: true},
		{name: "sqlite cached", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "kv.db"), CacheSize: 4, CacheTTL: time.Minute}, wantCached: true},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "unknown", config: Config{Type: "postgres"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := factory.CreateBackend(ctx, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend failed: %v", err)
			}
			defer result.Close()

			if _, ok := result.KV.(*storage.CachedKV); ok != tt.wantCached {
				t.Errorf("cached = %v, want %v", ok, tt.wantCached)
			}
			if (result.Cleaner != nil) != tt.wantCached {
				t.Errorf("cleaner present = %v, want %v", result.Cleaner != nil, tt.wantCached)
			}
			if (result.CacheStats != nil) != tt.wantCached {
				t.Errorf("cache stats present = %v, want %v", result.CacheStats != nil, tt.wantCached)
			}
			if _, ok := result.Direct.(*storage.CachedKV); ok || result.Direct == nil {
				t.Errorf("direct backend should be the uncached store, got %T", result.Direct)
			}

			if err := result.KV.Set(ctx, storage.KeyBudget, `{}`); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if v, ok, err := result.KV.Get(ctx, storage.KeyBudget); err != nil || !ok || v != `{}` {
				t.Fatalf("Get = %q, %v, %v", v, ok, err)
			}
		})
	}
}

func TestCreateBackend_DirectBypassesCache(t *testing.T) {
	ctx := context.Background()
	result, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, CacheSize: 4, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("CreateBackend failed: %v", err)
	}
	if err := result.KV.Set(ctx, storage.KeyBudget, `{}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, _, err := result.KV.Get(ctx, storage.KeyBudget); err != nil {
		t.Fatalf("warm Get failed: %v", err)
	}

	result.Direct.(*storage.MemoryKV).Fail(storage.KeyBudget, errors.New("disk gone"))

	if _, _, err := result.KV.Get(ctx, storage.KeyBudget); err != nil {
		t.Fatalf("cached Get should still succeed: %v", err)
	}
	if _, _, err := result.Direct.Get(ctx, storage.KeyBudget); err == nil {
		t.Fatal("direct Get should report the backend failure")
	}
	if stats := result.CacheStats(); stats.Hits == 0 {
		t.Errorf("expected cache hits, got %+v", stats)
	}
}
