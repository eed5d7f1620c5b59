package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/db"
	"github.com/gridwatch/gridwatch-orchestrator/internal/metrics"
)

const (
	// DefaultResolvedIdleDelay is how long a resolved session is shown
	// before returning to idle.
	DefaultResolvedIdleDelay = 4 * time.Second

	// DefaultErrorIdleDelay is how long an errored session is shown
	// before returning to idle.
	DefaultErrorIdleDelay = 3 * time.Second
)

// Manager owns the singleton session: it loads it once, applies reducer
// transitions under a lock, and persists the whole record after every
// transition.
type Manager struct {
	store db.SessionStore
	log   *zap.Logger

	mu      sync.Mutex
	current Session
	loaded  bool

	now           func() time.Time
	resolvedDelay time.Duration
	errorDelay    time.Duration
	idleTimer     *time.Timer

	onChange func(Session)
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIdleDelays overrides how long resolved and errored sessions linger
// before returning to idle. Non-positive delays disable the auto-return.
func WithIdleDelays(resolved, errored time.Duration) Option {
	return func(m *Manager) {
		m.resolvedDelay = resolved
		m.errorDelay = errored
	}
}

// WithOnChange registers a hook invoked after every persisted transition.
// The hook receives a copy of the new session and runs outside the
// manager lock.
func WithOnChange(fn func(Session)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// NewManager creates a session manager backed by the given store.
func NewManager(store db.SessionStore, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		log:           log,
		now:           time.Now,
		resolvedDelay: DefaultResolvedIdleDelay,
		errorDelay:    DefaultErrorIdleDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the session, loading it from the store on first use.
// A persisted blob that is malformed or carries a different schema version
// is discarded and replaced with a fresh idle session.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureLoaded(ctx); err != nil {
		return Session{}, err
	}
	return m.current, nil
}

// Dispatch applies an action, persists the result, and returns the new
// session.
func (m *Manager) Dispatch(ctx context.Context, a Action) (Session, error) {
	m.mu.Lock()
	if err := m.ensureLoaded(ctx); err != nil {
		m.mu.Unlock()
		return Session{}, err
	}

	next, err := m.applyLocked(ctx, a)
	if err != nil {
		m.mu.Unlock()
		return Session{}, err
	}
	m.mu.Unlock()

	m.log.Debug("session transition",
		zap.String("action", string(a.Type)),
		zap.String("status", string(next.Status)))

	if m.onChange != nil {
		m.onChange(next)
	}
	return next, nil
}

// Reset discards the session and persists a fresh idle one.
func (m *Manager) Reset(ctx context.Context) (Session, error) {
	return m.Dispatch(ctx, Action{Type: ActionReset})
}

// Close stops any pending idle-return timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
}

// ensureLoaded hydrates the session from the store. Caller holds the lock.
func (m *Manager) ensureLoaded(ctx context.Context) error {
	if m.loaded {
		return nil
	}

	raw, err := m.store.LoadSessionBlob(ctx, db.SessionKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if raw == "" {
		m.current = New(m.now())
	} else if s, ok := Decode(raw); ok {
		m.current = s
	} else {
		m.log.Warn("discarding persisted session with unknown schema",
			zap.Int("expected_schema", SchemaVersion))
		m.current = New(m.now())
	}
	m.loaded = true
	m.scheduleIdleReturn(m.current)
	return nil
}

// applyLocked reduces, persists, and re-arms the idle timer in one step.
// Caller holds the lock.
func (m *Manager) applyLocked(ctx context.Context, a Action) (Session, error) {
	next := Reduce(m.current, a, m.now())
	if err := m.persist(ctx, next); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	m.current = next
	metrics.SessionTransitionsTotal.WithLabelValues(string(a.Type)).Inc()
	m.scheduleIdleReturn(next)
	return next, nil
}

// persist writes the session blob. Caller holds the lock.
func (m *Manager) persist(ctx context.Context, s Session) error {
	raw, err := s.Encode()
	if err != nil {
		return err
	}
	return m.store.SaveSessionBlob(ctx, db.SessionKey, raw)
}

// scheduleIdleReturn arms the auto-return timer when the session enters a
// terminal state. Caller holds the lock.
func (m *Manager) scheduleIdleReturn(s Session) {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}

	var delay time.Duration
	switch s.Status {
	case StatusResolved:
		delay = m.resolvedDelay
	case StatusError:
		delay = m.errorDelay
	default:
		return
	}
	if delay <= 0 {
		return
	}

	from := s.Status
	runID := s.RunID
	m.idleTimer = time.AfterFunc(delay, func() {
		// Guard and transition under one lock acquisition so that a run
		// starting at expiry cannot have its fresh status overwritten.
		m.mu.Lock()
		if m.current.Status != from || m.current.RunID != runID {
			m.mu.Unlock()
			return
		}
		next, err := m.applyLocked(context.Background(), Action{Type: ActionSetStatus, Status: StatusIdle})
		m.mu.Unlock()
		if err != nil {
			m.log.Warn("auto idle return failed", zap.Error(err))
			return
		}
		if m.onChange != nil {
			m.onChange(next)
		}
	})
}
