// Package worker runs the background persistence of the expense list.
//
// The Synchronizer coalesces bursts of mutations into a single write after a
// quiet period and keeps retrying a failed write until it succeeds or a newer
// mutation supersedes it.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"spendtrack/internal/log"
)

// Saver writes the current record list to durable storage.
type Saver interface {
	Save(ctx context.Context) error
}

type State string

const (
	StateIdle         State = "idle"
	StatePending      State = "pending"
	StateWriting      State = "writing"
	StatePendingRetry State = "pending_retry"
	StateClosed       State = "closed"
)

// Config holds configuration for the synchronizer
type Config struct {
	// Debounce is the quiet period after the last mutation before writing (default: 300ms)
	Debounce time.Duration

	// RetryDelay is the wait before retrying a failed write (default: 5s)
	RetryDelay time.Duration

	// WriteTimeout bounds a single write (default: 10s)
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Debounce:     300 * time.Millisecond,
		RetryDelay:   5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Stats summarizes synchronizer activity.
type Stats struct {
	State     State  `json:"state"`
	Scheduled uint64 `json:"scheduled"`
	Writes    uint64 `json:"writes"`
	Failures  uint64 `json:"failures"`
	LastError string `json:"lastError,omitempty"`
	// LastSuccess is nil until the first save succeeds.
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
}

type Synchronizer struct {
	saver  Saver
	config Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	gen    uint64
	timer  *time.Timer
	closed bool
	stats  Stats
}

func NewSynchronizer(saver Saver, config Config) *Synchronizer {
	def := DefaultConfig()
	if config.Debounce <= 0 {
		config.Debounce = def.Debounce
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		saver:  saver,
		config: config,
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdle,
	}
}

// Schedule (re)starts the debounce timer. A pending write or pending retry is
// superseded by the new one.
func (s *Synchronizer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	s.stopTimerLocked()
	s.state = StatePending
	s.stats.Scheduled++

	gen := s.gen
	s.timer = time.AfterFunc(s.config.Debounce, func() { s.fire(gen) })
}

func (s *Synchronizer) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = StateWriting
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.config.WriteTimeout)
	err := s.saver.Save(ctx)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
		if s.closed || gen != s.gen {
			return
		}
		s.state = StatePendingRetry
		s.timer = time.AfterFunc(s.config.RetryDelay, func() { s.fire(gen) })

		slog.Warn("Background save failed, retry scheduled",
			log.FieldComponent, log.ComponentSync,
			log.FieldError, err.Error(),
			"retry_in", s.config.RetryDelay)
		return
	}

	s.stats.Writes++
	s.stats.LastError = ""
	now := time.Now()
	s.stats.LastSuccess = &now
	if !s.closed && gen == s.gen {
		s.state = StateIdle
	}
	slog.Debug("Background save completed", log.FieldComponent, log.ComponentSync)
}

func (s *Synchronizer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Close cancels any scheduled write, aborts an in-flight one and waits for it
// to return. Timers that fire afterwards do nothing.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.state = StateClosed
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	slog.Info("Synchronizer stopped", log.FieldComponent, log.ComponentSync, log.FieldOperation, log.OpShutdown)
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.State = s.state
	return stats
}
