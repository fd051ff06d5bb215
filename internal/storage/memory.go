package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps values in process memory. Fail lets tests inject storage errors.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
	fail   map[string]error
	writes int
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values: make(map[string]string),
		fail:   make(map[string]error),
	}
}

// Fail makes every operation on key return err until err is nil again.
func (m *MemoryKV) Fail(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, key)
		return
	}
	m.fail[key] = err
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[key]; err != nil {
		return "", false, err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[key]; err != nil {
		return err
	}
	m.values[key] = value
	m.writes++
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[key]; err != nil {
		return err
	}
	delete(m.values, key)
	return nil
}

// Writes returns the number of successful Set calls.
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
