package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/logging"
	"github.com/PapyGame/PapyrusWebBackend-sub011/internal/runtime"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/domain"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/model"
	"github.com/PapyGame/PapyrusWebBackend-sub011/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// snapshot is the stored form of a session.
type snapshot struct {
	Model   json.RawMessage `json:"model"`
	Diagram *domain.Diagram `json:"diagram"`
}

// Manager serializes access to sessions and persists them through a SessionStore.
// Locks are reference counted and dropped once no caller holds them.
type Manager struct {
	store ports.SessionStore
	mm    *model.Metamodel

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager. Stored models are restored against mm.
func NewManager(store ports.SessionStore, mm *model.Metamodel, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		mm:      mm,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, then call release after unlocking.
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

// Encode serializes a session for the store.
func (m *Manager) Encode(s *runtime.Session) ([]byte, error) {
	raw, err := s.Model.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return json.Marshal(snapshot{Model: raw, Diagram: s.Diagram})
}

// Decode restores a session written by Encode.
func (m *Manager) Decode(data []byte) (*runtime.Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if snap.Diagram == nil {
		return nil, fmt.Errorf("decode session: snapshot has no diagram")
	}
	mdl, err := model.Restore(m.mm, snap.Model)
	if err != nil {
		return nil, err
	}
	snap.Diagram.Reindex()
	return &runtime.Session{Model: mdl, Diagram: snap.Diagram}, nil
}

func (m *Manager) load(ctx context.Context, sessionID string) (*runtime.Session, error) {
	data, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.Decode(data)
}

func (m *Manager) save(ctx context.Context, sessionID string, s *runtime.Session) error {
	data, err := m.Encode(s)
	if err != nil {
		return err
	}
	return m.store.Save(ctx, sessionID, data)
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*runtime.Session, error) {
	var s *runtime.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrStart loads a session, or builds it with start and persists it when it does not exist.
// Concurrent callers on the same id observe a single start.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string, start func(context.Context) (*runtime.Session, error)) (*runtime.Session, error) {
	var s *runtime.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.load(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		s, err = start(ctx)
		if err != nil {
			return err
		}
		if err := m.save(ctx, sessionID, s); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return s, err
}

// Save persists a session.
func (m *Manager) Save(ctx context.Context, sessionID string, s *runtime.Session) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.save(ctx, sessionID, s)
	})
}

// Update loads a session, runs fn on it and saves it back when fn reports a change.
// The whole read-modify-write holds the session lock.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(context.Context, *runtime.Session) (bool, error)) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.load(ctx, sessionID)
		if err != nil {
			return err
		}
		changed, err := fn(ctx, s)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return m.save(ctx, sessionID, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
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

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
