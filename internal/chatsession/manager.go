package chatsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mentormind/mentormind/internal/figures"
)

var ErrNotFound = errors.New("session not found")

// Manager tracks live chat sessions. Sessions only exist while a chat view is
// open; the janitor discards abandoned ones after the inactivity timeout.
type Manager struct {
	deps              Deps
	inactivityTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(deps Deps, inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		deps:              deps,
		inactivityTimeout: inactivityTimeout,
		sessions:          make(map[string]*Controller),
	}
}

// Create registers a new session controller for a user and figure. The caller
// drives Start separately so a provisioning failure still yields a session
// that can be retried.
func (m *Manager) Create(userID string, figure figures.Figure) *Controller {
	c := NewController(userID, figure, m.deps)
	m.mu.Lock()
	m.sessions[c.ID] = c
	m.mu.Unlock()
	return c
}

func (m *Manager) Get(sessionID string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// End terminates and removes a session.
func (m *Manager) End(sessionID string) (*Controller, error) {
	m.mu.Lock()
	c, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	c.End()
	return c, nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor expires inactive sessions until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Controller

	m.mu.Lock()
	for id, c := range m.sessions {
		if now.Sub(c.LastActivityAt()) < m.inactivityTimeout {
			continue
		}
		expired = append(expired, c)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, c := range expired {
		c.End()
		if m.deps.Metrics != nil {
			m.deps.Metrics.SessionEvents.WithLabelValues("expired").Inc()
		}
	}
}
