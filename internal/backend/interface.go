package backend

import (
	"context"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the KV store and optional cleanup function
type BackendResult struct {
	KV storage.KV
	// Direct is the backend without the read cache. Health checks use it so
	// they observe the real store.
	Direct storage.KV
	// Cleaner is set when the KV is wrapped in an expiring cache.
	Cleaner cache.Cleaner
	// CacheStats is nil when the read cache is disabled.
	CacheStats func() cache.Stats
	Cleanup    CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates KV backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Read cache in front of the backend; disabled when CacheSize is 0.
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
