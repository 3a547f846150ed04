package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Session is the persisted sign-in record.
type Session struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email,omitempty"`
	Token      string     `json:"token"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	SignedInAt time.Time  `json:"signed_in_at"`
}

// Listener is called after every change of the signed-in user. present is
// false after sign-out.
type Listener func(userID string, present bool)

// Manager owns the current session and its file.
type Manager struct {
	path   string
	secret []byte
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	current   *Session
	listeners map[int]Listener
	nextID    int
}

// Option configures a Manager.
type Option func(*Manager)

// WithSecret enables HS256 verification of access tokens.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if secret != "" {
			m.secret = []byte(secret)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a signed-out manager persisting to path.
func NewManager(path string, opts ...Option) *Manager {
	m := &Manager{
		path:      path,
		logger:    slog.Default(),
		now:       time.Now,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UserID returns the signed-in user.
func (m *Manager) UserID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false
	}
	return m.current.UserID, true
}

// Current returns a copy of the session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// Subscribe registers fn for session changes and returns its unsubscribe.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SignIn validates token, persists the session and notifies listeners.
func (m *Manager) SignIn(token string) (*Session, error) {
	now := m.now()
	ident, err := ParseToken(token, m.secret, now)
	if err != nil {
		return nil, err
	}
	s := &Session{
		UserID:     ident.UserID,
		Email:      ident.Email,
		Token:      token,
		ExpiresAt:  ident.ExpiresAt,
		SignedInAt: now.UTC(),
	}
	if err := writeSession(m.path, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.logger.Info("signed in", "user_id", s.UserID)
	m.notify(s.UserID, true)

	out := *s
	return &out, nil
}

// SignOut clears the session file and notifies listeners.
func (m *Manager) SignOut() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	m.mu.Lock()
	was := m.current
	m.current = nil
	m.mu.Unlock()
	if was != nil {
		m.logger.Info("signed out", "user_id", was.UserID)
	}
	m.notify("", false)
	return nil
}

// Restore loads the persisted session, if any, and notifies listeners with
// the result. An expired or unreadable session is discarded.
func (m *Manager) Restore() (*Session, error) {
	s, err := readSession(m.path)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if _, perr := ParseToken(s.Token, m.secret, m.now()); perr != nil {
			m.logger.Warn("discarding stored session", "user_id", s.UserID, "error", perr)
			_ = os.Remove(m.path)
			s = nil
		}
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	if s == nil {
		m.notify("", false)
		return nil, nil
	}
	m.notify(s.UserID, true)
	out := *s
	return &out, nil
}

func (m *Manager) notify(userID string, present bool) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(userID, present)
	}
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.UserID == "" || s.Token == "" {
		return nil, nil
	}
	return &s, nil
}

func writeSession(path string, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
