package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-services/internal/character"
	"github.com/lifequest/lifequest-services/internal/progression"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

const (
	resubscribeDelay = 5 * time.Second
	finalSaveTimeout = 5 * time.Second
)

// Options configures a session.
type Options struct {
	Rules        *progression.Rules
	Repository   character.Repository
	SaveDebounce time.Duration
	Logger       *slog.Logger
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Snapshot is the view of a session together with its persistence notice.
type Snapshot struct {
	progression.View
	Notice string `json:"notice,omitempty"`
}

// Session owns the state of one character. Every transition runs under one mutex, so the
// HTTP handlers and the remote listener never interleave.
type Session struct {
	userID string
	writer string
	rules  *progression.Rules
	saver  *character.Saver
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     progression.State
	listeners map[chan Snapshot]struct{}
	closed    bool
	lastUsed  time.Time
	// seen is the update time of the newest stored document this session has taken in.
	// Deliveries at or before it are replays of state the session already holds.
	seen time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Open loads the character and starts the remote listener. A user without a stored
// document starts at level 1 and the initial document is scheduled for writing.
func Open(ctx context.Context, userID string, opts Options) (*Session, error) {
	if opts.Rules == nil || opts.Repository == nil {
		return nil, fmt.Errorf("session: rules and repository are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	snap, err := opts.Repository.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := snap.Character
	if !snap.Found {
		c = progression.NewCharacter()
	}

	logger := opts.Logger.With("userId", userID)
	s := &Session{
		userID:    userID,
		writer:    uuid.NewString(),
		rules:     opts.Rules,
		saver:     character.NewSaver(opts.Repository, userID, opts.SaveDebounce, logger),
		logger:    logger,
		now:       opts.Now,
		state:     progression.NewState(opts.Rules, c, snap.Missions, snap.History, snap.Document.ClaimedAchievements),
		listeners: make(map[chan Snapshot]struct{}),
		lastUsed:  opts.Now(),
		seen:      snap.Document.UpdatedAt,
		done:      make(chan struct{}),
	}
	if !snap.Found {
		s.saver.Schedule(s.documentChange())
	}

	subCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.listen(subCtx, opts.Repository)

	logger.Debug("session opened", "writer", s.writer, "missions", len(snap.Missions), "history", len(snap.History))
	return s, nil
}

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// Dispatch applies an event. Already-completed missions return the unchanged state with
// progression.ErrAlreadyCompleted so callers can report a no-op.
func (s *Session) Dispatch(ev progression.Event) (progression.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return progression.Result{}, ErrClosed
	}
	s.lastUsed = s.now()

	res, err := progression.Reduce(s.rules, s.state, ev, s.lastUsed)
	if err != nil {
		return res, err
	}
	s.state = res.State
	if res.Persist {
		s.saver.Schedule(s.changeFor(res))
	}
	s.broadcastLocked()
	return res, nil
}

// View returns the derived read model.
func (s *Session) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	return s.snapshotLocked()
}

// State returns a copy of the current state.
func (s *Session) State() progression.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Watch registers a listener that receives a snapshot after every transition. The channel
// keeps only the latest snapshot. The returned func unregisters it.
func (s *Session) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.listeners[ch] = struct{}{}
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.listeners[ch]; ok {
				delete(s.listeners, ch)
				close(ch)
			}
		})
	}
}

// Flush writes pending changes now.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// IdleSince returns the time of the last use.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Watched reports whether a listener is registered. Watched sessions are never idle.
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners) > 0
}

// Close stops the listener, waits for it to exit and flushes pending writes. An expired ctx
// bounds the wait for the listener only; the final flush gets its own short deadline.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closeLocked()
	s.mu.Unlock()
	return s.shutdown(ctx)
}

// closeIfIdle marks the session closed when it was unused since cutoff, has no listener and
// nothing waits to be written. The caller must finish with shutdown.
func (s *Session) closeIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.lastUsed.After(cutoff) || len(s.listeners) > 0 || s.saver.Pending() {
		return false
	}
	s.closeLocked()
	return true
}

// Unsaved reports whether changes are pending or the last save failed.
func (s *Session) Unsaved() bool {
	return s.saver.Pending() || s.saver.Err() != nil
}

func (s *Session) closeLocked() {
	s.closed = true
	for ch := range s.listeners {
		delete(s.listeners, ch)
		close(ch)
	}
}

func (s *Session) shutdown(ctx context.Context) error {
	s.cancel()
	var waitErr error
	select {
	case <-s.done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("stop character listener: %w", ctx.Err())
	}

	flushCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
		defer cancel()
	}
	if err := s.saver.Close(flushCtx); err != nil {
		s.logger.Error("unsaved character changes dropped", "error", err)
		return errors.Join(waitErr, err)
	}
	if waitErr != nil {
		return waitErr
	}
	s.logger.Debug("session closed")
	return nil
}

func (s *Session) listen(ctx context.Context, repo character.Repository) {
	defer close(s.done)
	for {
		err := repo.Subscribe(ctx, s.userID, s.onRemote)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Warn("character subscription failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

func (s *Session) onRemote(doc character.Document) {
	if doc.Writer == s.writer {
		return
	}
	c, err := doc.Character()
	if err != nil {
		s.logger.Warn("ignoring remote character", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if !doc.UpdatedAt.After(s.seen) {
		return
	}
	if c.TotalXP < s.state.Character.TotalXP && s.saver.Pending() {
		s.logger.Debug("remote character behind unsaved changes", "writer", doc.Writer, "remoteTotalXP", c.TotalXP)
		return
	}
	res, err := progression.Reduce(s.rules, s.state, progression.RemoteSnapshot{
		Character: c,
		Claimed:   doc.ClaimedAchievements,
	}, s.now())
	if err != nil {
		return
	}
	s.state = res.State
	s.seen = doc.UpdatedAt
	s.logger.Debug("remote character applied", "writer", doc.Writer, "level", c.Level)
	s.broadcastLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{View: progression.BuildView(s.rules, s.state, s.now())}
	if err := s.saver.Err(); err != nil {
		snap.Notice = "changes are not saved yet; retrying"
	}
	return snap
}

func (s *Session) broadcastLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.listeners {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Session) documentChange() character.Change {
	doc := character.NewDocument(s.state.Character, s.state.Claimed, s.writer, s.now())
	return character.Change{Document: &doc}
}

func (s *Session) changeFor(res progression.Result) character.Change {
	change := s.documentChange()
	if res.Mission != nil {
		change.Missions = map[string]progression.Mission{res.Mission.ID: *res.Mission}
	}
	if res.Entry != nil {
		change.History = []progression.HistoryEntry{*res.Entry}
	}
	return change
}
