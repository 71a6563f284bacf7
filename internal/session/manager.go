package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const openTimeout = 10 * time.Second

// Manager keeps one open session per user and closes idle ones.
type Manager struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	opening  singleflight.Group
}

// NewManager returns a manager that opens sessions with opts.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session of the user, opening it on first use. Concurrent first calls
// share one load.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// The load is shared by every caller waiting on this user, so it must not end with the
	// first caller's request.
	ch := m.opening.DoChan(userID, func() (any, error) {
		m.mu.Lock()
		if s, ok := m.sessions[userID]; ok {
			m.mu.Unlock()
			return s, nil
		}
		m.mu.Unlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
		defer cancel()
		s, err := Open(loadCtx, userID, m.opts)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			_ = s.Close(loadCtx)
			return nil, ErrClosed
		}
		m.sessions[userID] = s
		m.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseIdle closes unwatched sessions unused for at least ttl and returns how many were closed.
// A session with unsaved changes is flushed first and kept open while the flush fails.
func (m *Manager) CloseIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := m.opts.Now().Add(-ttl)

	m.mu.Lock()
	candidates := make(map[string]*Session)
	for id, s := range m.sessions {
		if !s.IdleSince().After(cutoff) && !s.Watched() {
			candidates[id] = s
		}
	}
	m.mu.Unlock()

	var idle []*Session
	for id, s := range candidates {
		if s.Unsaved() {
			if err := s.Flush(ctx); err != nil {
				m.logger.Warn("keeping idle session with unsaved changes", "userId", id, "error", err)
				continue
			}
		}
		m.mu.Lock()
		if m.sessions[id] == s && s.closeIfIdle(cutoff) {
			delete(m.sessions, id)
			idle = append(idle, s)
		}
		m.mu.Unlock()
	}

	for _, s := range idle {
		if err := s.shutdown(ctx); err != nil {
			m.logger.Warn("close idle session", "userId", s.UserID(), "error", err)
		}
	}
	return len(idle)
}

// Run closes idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CloseIdle(ctx, ttl); n > 0 {
				m.logger.Info("closed idle sessions", "count", n)
			}
		}
	}
}

// CloseAll closes every session, flushing pending writes. The manager rejects new sessions afterwards.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
