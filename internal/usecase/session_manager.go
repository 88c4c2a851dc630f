package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockpulse/internal/domain/models"
	"stockpulse/pkg/logger"
)

// SessionFactory builds a ready-to-start session for a given name and
// originator. The manager owns the result.
type SessionFactory func(name, startedBy string) *StreamSession

// SessionManager owns the streaming sessions the worker runs. The
// controller keeps it at one running session while the market is open.
type SessionManager struct {
	factory SessionFactory
	logger  *logger.Logger

	mu       sync.Mutex
	sessions map[string]*StreamSession
}

// NewSessionManager creates an empty manager.
func NewSessionManager(factory SessionFactory, lgr *logger.Logger) *SessionManager {
	return &SessionManager{
		factory:  factory,
		logger:   lgr,
		sessions: make(map[string]*StreamSession),
	}
}

// Start creates and launches a session. An empty name gets a generated one.
// Starting a name that already exists is an error.
func (m *SessionManager) Start(ctx context.Context, name, startedBy string) (models.Session, error) {
	if name == "" {
		name = fmt.Sprintf("market-session-%d", time.Now().Unix())
	}
	if startedBy == "" {
		startedBy = "manual"
	}

	m.mu.Lock()
	if _, ok := m.sessions[name]; ok {
		m.mu.Unlock()
		return models.Session{}, fmt.Errorf("session %q already exists", name)
	}
	s := m.factory(name, startedBy)
	m.sessions[name] = s
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, name)
		m.mu.Unlock()
		return models.Session{}, fmt.Errorf("start session %q: %w", name, err)
	}
	return s.Snapshot(), nil
}

// Stop stops the named session. Unknown names are an error; stopping a
// stopped session is not.
func (m *SessionManager) Stop(ctx context.Context, name string) (models.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[name]
	m.mu.Unlock()
	if !ok {
		return models.Session{}, fmt.Errorf("session %q not found", name)
	}
	if err := s.Stop(ctx); err != nil {
		return s.Snapshot(), fmt.Errorf("stop session %q: %w", name, err)
	}
	return s.Snapshot(), nil
}

// List returns session snapshots, optionally filtered by state.
func (m *SessionManager) List(status models.SessionState) []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		snap := s.Snapshot()
		if status != "" && snap.State != status {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// Get returns one session snapshot by name.
func (m *SessionManager) Get(name string) (models.Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[name]
	m.mu.Unlock()
	if !ok {
		return models.Session{}, false
	}
	return s.Snapshot(), true
}

// StopAll stops every running session, continuing past failures, and
// returns how many stops succeeded.
func (m *SessionManager) StopAll(ctx context.Context) int {
	m.mu.Lock()
	active := make([]*StreamSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, s)
	}
	m.mu.Unlock()

	stopped := 0
	for _, s := range active {
		running := s.Snapshot().State == models.SessionRunning
		if err := s.Stop(ctx); err != nil {
			m.logger.Error("stopping session failed",
				logger.String("session", s.Name()), logger.Error(err))
			continue
		}
		if running {
			stopped++
		}
	}
	return stopped
}
