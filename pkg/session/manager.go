package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a replica may hold a session's distributed lock.
const DefaultLockTTL = 2 * time.Minute

// lockProbeTimeout bounds a non-waiting attempt at the distributed lock.
const lockProbeTimeout = 250 * time.Millisecond

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	engine *parley.Engine
	store  ports.SessionStore

	mu    sync.Mutex            // guards locks and live
	locks map[string]*lockEntry // per-session turn locks
	live  map[string]*parley.Conversation

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Conversations are then reloaded
// from the store on every turn, since another replica may have moved them.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator (tests).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a Session Manager on top of an engine and a store.
func NewManager(engine *parley.Engine, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		store:   store,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*parley.Conversation),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must call release(sessionID) once done with the entry.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// withLock runs fn holding the session's local lock and, if configured, its
// distributed lock. With wait=false a busy session fails fast with
// domain.ErrGenerationInProgress instead of queueing; the distributed lock is
// then only tried for lockProbeTimeout.
func (m *Manager) withLock(ctx context.Context, sessionID string, wait bool, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	if wait {
		entry.mu.Lock()
	} else if !entry.mu.TryLock() {
		return domain.ErrGenerationInProgress
	}
	defer entry.mu.Unlock()

	if m.locker != nil {
		lockCtx, cancel := ctx, context.CancelFunc(func() {})
		if !wait {
			lockCtx, cancel = context.WithTimeout(ctx, lockProbeTimeout)
		}
		unlock, err := m.locker.Lock(lockCtx, sessionID, m.lockTTL)
		cancel()
		if err != nil {
			if !wait && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return domain.ErrGenerationInProgress
			}
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start opens a new session, persists it and returns the views up to the
// first input step.
func (m *Manager) Start(ctx context.Context) (string, []domain.StepView, error) {
	id := m.newID()

	var views []domain.StepView
	err := m.withLock(ctx, id, true, func(ctx context.Context) error {
		conv, err := m.open(ctx, id, nil)
		if err != nil {
			return err
		}
		views, err = conv.Advance(ctx)
		if err != nil {
			return err
		}
		return m.persist(ctx, conv)
	})
	if err != nil {
		return "", nil, err
	}
	m.logger.Debug("session started", "session_id", id)
	return id, views, nil
}

// Get returns a read-only view of a session. It never waits for a pending
// answer and never completes one that is still running on this or another
// replica. A pending answer whose turn lock is free was abandoned by a
// crashed process; that turn is completed as a failure under the lock.
func (m *Manager) Get(ctx context.Context, sessionID string) (*parley.Conversation, error) {
	if conv := m.cached(sessionID); conv != nil && (m.locker == nil || conv.State().IsGenerating) {
		return conv, nil
	}
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap.Conversation.IsGenerating {
		conv, err := m.recover(ctx, sessionID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, domain.ErrGenerationInProgress) {
			return nil, err
		}
	}
	return m.engine.View(snap)
}

// recover completes an abandoned turn. It yields domain.ErrGenerationInProgress
// when the turn is still owned by someone.
func (m *Manager) recover(ctx context.Context, sessionID string) (*parley.Conversation, error) {
	var conv *parley.Conversation
	err := m.withLock(ctx, sessionID, false, func(ctx context.Context) error {
		var err error
		if conv, err = m.resolve(ctx, sessionID); err != nil {
			return err
		}
		return m.persist(ctx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Submit sends one user input and returns the views shown afterwards, up to
// the next input step. A session that is already processing input yields
// domain.ErrGenerationInProgress.
func (m *Manager) Submit(ctx context.Context, sessionID, text string) ([]domain.StepView, error) {
	var views []domain.StepView
	err := m.withLock(ctx, sessionID, false, func(ctx context.Context) error {
		conv, err := m.resolve(ctx, sessionID)
		if err != nil {
			return err
		}

		// A restored session may sit before its input step.
		if conv.Current().Kind != domain.StepUserInput {
			pre, err := conv.Advance(ctx)
			if err != nil {
				return err
			}
			views = append(views, pre...)
		}

		post, err := conv.Exchange(ctx, text)
		views = append(views, post...)
		if err != nil {
			if errors.Is(err, domain.ErrNotAwaitingInput) || errors.Is(err, domain.ErrGenerationInProgress) {
				return err
			}
			_ = m.persist(ctx, conv)
			return err
		}
		return m.persist(ctx, conv)
	})
	return views, err
}

// Delete ends a session and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.withLock(ctx, sessionID, true, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.live, sessionID)
		m.mu.Unlock()
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Engine returns the engine shared by all sessions.
func (m *Manager) Engine() *parley.Engine {
	return m.engine
}

func (m *Manager) cached(sessionID string) *parley.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[sessionID]
}

// resolve returns the conversation to drive for a turn. Caller holds the session lock.
func (m *Manager) resolve(ctx context.Context, sessionID string) (*parley.Conversation, error) {
	if conv := m.cached(sessionID); conv != nil && m.locker == nil {
		return conv, nil
	}
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, sessionID, snap)
}

// open creates (snap == nil) or resumes a conversation wired with the
// checkpoint hook, and caches it.
func (m *Manager) open(ctx context.Context, sessionID string, snap *domain.Snapshot) (*parley.Conversation, error) {
	var conv *parley.Conversation
	checkpoint := domain.LifecycleHooks{
		OnGenerateStart: func(ctx context.Context, _ *domain.GenerationEvent) {
			if conv != nil {
				_ = m.persist(ctx, conv)
			}
		},
	}

	var err error
	if snap == nil {
		conv, err = m.engine.Start(ctx, sessionID, parley.WithConversationHooks(checkpoint))
	} else {
		conv, err = m.engine.Resume(snap, parley.WithConversationHooks(checkpoint))
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.live[sessionID] = conv
	m.mu.Unlock()
	return conv, nil
}

func (m *Manager) persist(ctx context.Context, conv *parley.Conversation) error {
	snap := conv.Snapshot()
	if err := m.store.Save(context.WithoutCancel(ctx), snap.SessionID, snap); err != nil {
		m.logger.Warn("failed to persist session", "session_id", snap.SessionID, "err", err)
		return fmt.Errorf("failed to persist session %s: %w", snap.SessionID, err)
	}
	return nil
}
