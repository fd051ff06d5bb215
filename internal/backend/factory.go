// Package backend builds the key-value store the record and budget stores
// persist through.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendtrack/internal/log"
	"spendtrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result *BackendResult
	switch config.Type {
	case SQLiteBackend:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		result = &BackendResult{KV: kv, Cleanup: kv.Close}
	case MemoryBackend:
		f.logger.WarnContext(ctx, "Initialized memory backend, data will not survive a restart")
		result = &BackendResult{KV: storage.NewMemoryKV()}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result.Direct = result.KV
	if config.CacheSize > 0 {
		cached := storage.NewCachedKV(result.KV, config.CacheSize, config.CacheTTL)
		result.KV = cached
		result.Cleaner = cached.Cleaner()
		result.CacheStats = cached.Stats
		f.logger.InfoContext(ctx, "Read cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL)
	}
	return result, nil
}
