package character

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultSaveDebounce is the coalescing window for writes.
	DefaultSaveDebounce = 300 * time.Millisecond

	commitTimeout = 10 * time.Second
)

// Saver coalesces writes for one user. At most one write is pending per window; states
// between flushes are never written. A failed flush keeps its change and is retried on the
// next tick, merged under anything scheduled meanwhile.
type Saver struct {
	repo   Repository
	userID string
	delay  time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	pending  Change
	timer    *time.Timer
	closed   bool
	inflight bool
	lastErr  error

	// flushMu keeps commits in order.
	flushMu sync.Mutex
}

// NewSaver builds a saver; a non-positive delay selects DefaultSaveDebounce.
func NewSaver(repo Repository, userID string, delay time.Duration, logger *slog.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{repo: repo, userID: userID, delay: delay, logger: logger}
}

// Schedule merges a change into the pending write and arms the timer if needed.
// It returns false once the saver is closed.
func (s *Saver) Schedule(change Change) bool {
	if change.Empty() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending = s.pending.Merge(change)
	s.armLocked()
	return true
}

func (s *Saver) armLocked() {
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.tick)
	}
}

func (s *Saver) tick() {
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.logger.Warn("character save failed, retrying", "userId", s.userID, "error", err)
		s.mu.Lock()
		if !s.closed {
			s.armLocked()
		}
		s.mu.Unlock()
	}
}

// Flush writes the pending change now. On failure the change stays pending.
func (s *Saver) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	change := s.pending
	s.pending = Change{}
	s.inflight = !change.Empty()
	s.mu.Unlock()

	if change.Empty() {
		return nil
	}

	err := s.repo.Commit(ctx, s.userID, change)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if err != nil {
		s.pending = change.Merge(s.pending)
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	s.logger.Debug("character saved", "userId", s.userID, "missions", len(change.Missions), "history", len(change.History))
	return nil
}

// Pending reports whether a write is waiting or in flight.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight || !s.pending.Empty()
}

// Err returns the error of the last failed flush, cleared by the next successful one.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops the timer and flushes synchronously. Later Schedule calls are rejected.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	return s.Flush(ctx)
}
