package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantmarket/cartsync/pkg/config"
	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/metrics"
)

// Mode states which backend a session persists through. A session is always
// in exactly one mode; guest to authenticated is one-directional and runs the
// merge, the reverse (sign-out) just switches to a fresh guest cart.
type Mode string

const (
	ModeGuest         Mode = "guest"
	ModeAuthenticated Mode = "authenticated"
)

// Session binds one cart store to one identity for its lifetime. There is no
// package-level cart: sessions are explicit objects handed to whoever needs
// them, one writer per session key.
type Session struct {
	key      string
	mode     Mode
	userID   *uuid.UUID
	store    *Store
	lastSeen time.Time
}

func (s *Session) Key() string   { return s.key }
func (s *Session) Mode() Mode    { return s.mode }
func (s *Session) Store() *Store { return s.store }

// ManagerParams wires the manager's dependencies.
type ManagerParams struct {
	GuestStore GuestStore
	DB         *gorm.DB
	Logger     *logger.Logger
	Metrics    *metrics.CartMetrics
	Notifier   Notifier
	Config     config.CartConfig
}

// Manager owns the live sessions, one per guest token or user id, and runs
// the guest-to-user transition.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	kv       GuestStore
	db       *gorm.DB
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
	notifier Notifier
	cfg      config.CartConfig
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.GuestStore == nil {
		return nil, errors.New("guest store is required")
	}
	if params.DB == nil {
		return nil, errors.New("database handle is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Manager{
		sessions: map[string]*Session{},
		kv:       params.GuestStore,
		db:       params.DB,
		logg:     params.Logger,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		cfg:      params.Config,
	}, nil
}

// Guest returns the session for an unauthenticated token, creating it from
// the persisted guest cart on first touch. A read failure degrades to an
// empty cart instead of blocking the storefront.
func (m *Manager) Guest(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.guestLocked(ctx, token), nil
}

// Authenticated returns the session for a signed-in user, creating it from
// the server cart on first touch.
func (m *Manager) Authenticated(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticatedLocked(ctx, userID), nil
}

// SignIn runs the one-time guest-to-authenticated transition: pending guest
// writes settle, the merge coordinator reconciles both carts, and the user's
// session publishes the result. On a merge failure the guest data stays
// persisted for retry, the returned session holds the server cart as-is, and
// the error is surfaced for a user-facing warning.
func (m *Manager) SignIn(ctx context.Context, guestToken string, userID uuid.UUID) (*Session, error) {
	if guestToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	guestKey := sessionKey(ModeGuest, guestToken)
	if existing, ok := m.sessions[guestKey]; ok {
		existing.store.Flush()
		existing.store.Close()
		delete(m.sessions, guestKey)
	}

	local := NewGuestBackend(m.kv, guestToken, m.cfg.GuestTTL, m.logg)
	remote := NewRemoteBackend(m.db, userID, m.logg)

	userKey := sessionKey(ModeAuthenticated, userID.String())
	if existing, ok := m.sessions[userKey]; ok {
		existing.store.Flush()
		existing.store.Close()
		delete(m.sessions, userKey)
	}

	coordinator := NewMergeCoordinator(local, remote, m.logg, m.metrics)
	merged, mergeErr := coordinator.Merge(ctx)

	uid := userID
	sess := &Session{
		key:      userKey,
		mode:     ModeAuthenticated,
		userID:   &uid,
		store:    m.newStore(remote, merged),
		lastSeen: time.Now(),
	}
	m.sessions[userKey] = sess
	return sess, mergeErr
}

// SignOut drops the authenticated session and hands back a guest session
// under a fresh token. The server cart stays untouched; nothing merges on the
// way out.
func (m *Manager) SignOut(ctx context.Context, userID uuid.UUID, guestToken string) (*Session, error) {
	if guestToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	userKey := sessionKey(ModeAuthenticated, userID.String())
	if existing, ok := m.sessions[userKey]; ok {
		existing.store.Flush()
		existing.store.Close()
		delete(m.sessions, userKey)
	}

	return m.guestLocked(ctx, guestToken), nil
}

// PruneIdle closes sessions untouched since the idle expiry. The persisted
// carts are unaffected; a pruned session reloads on next touch.
func (m *Manager) PruneIdle(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.SessionIdleExpiry <= 0 {
		return 0
	}

	pruned := 0
	for key, sess := range m.sessions {
		if now.Sub(sess.lastSeen) < m.cfg.SessionIdleExpiry {
			continue
		}
		sess.store.Flush()
		sess.store.Close()
		delete(m.sessions, key)
		pruned++
	}
	if pruned > 0 {
		m.logg.Info(m.logg.WithField(ctx, "pruned", pruned), "idle cart sessions closed")
	}
	return pruned
}

// Close flushes and stops every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, sess := range m.sessions {
		sess.store.Flush()
		sess.store.Close()
		delete(m.sessions, key)
	}
}

func (m *Manager) guestLocked(ctx context.Context, token string) *Session {
	key := sessionKey(ModeGuest, token)
	if sess, ok := m.sessions[key]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	backend := NewGuestBackend(m.kv, token, m.cfg.GuestTTL, m.logg)
	lines, err := backend.Load(ctx)
	if err != nil {
		m.logg.Error(ctx, "guest cart unavailable, starting empty", err)
		lines = []Line{}
	}

	sess := &Session{
		key:      key,
		mode:     ModeGuest,
		store:    m.newStore(backend, lines),
		lastSeen: time.Now(),
	}
	m.sessions[key] = sess
	return sess
}

func (m *Manager) authenticatedLocked(ctx context.Context, userID uuid.UUID) *Session {
	key := sessionKey(ModeAuthenticated, userID.String())
	if sess, ok := m.sessions[key]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	backend := NewRemoteBackend(m.db, userID, m.logg)
	lines, err := backend.Load(ctx)
	if err != nil {
		m.logg.Error(ctx, "server cart unavailable, starting empty", err)
		lines = []Line{}
	}

	uid := userID
	sess := &Session{
		key:      key,
		mode:     ModeAuthenticated,
		userID:   &uid,
		store:    m.newStore(backend, lines),
		lastSeen: time.Now(),
	}
	m.sessions[key] = sess
	return sess
}

func (m *Manager) newStore(backend Backend, lines []Line) *Store {
	return NewStore(backend, lines, StoreOptions{
		Logger:         m.logg,
		Notifier:       m.notifier,
		Metrics:        m.metrics,
		QueueSize:      m.cfg.PersistQueueSize,
		PersistTimeout: m.cfg.PersistTimeout,
	})
}

func sessionKey(mode Mode, id string) string {
	return string(mode) + ":" + id
}
