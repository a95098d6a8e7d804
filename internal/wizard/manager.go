package wizard

import (
	"sync"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/analysis"
)

// Runtime bundles the live per-session pieces: the controller with its
// in-memory session, the coordinator owning debounce timers, and the
// analysis monitor owning the poll loop.
type Runtime struct {
	Controller  *Controller
	Coordinator *Coordinator
	Monitor     *analysis.Monitor
	DraftOffer  *DraftOffer
	Stuck       *analysis.StuckReport
}

// Close cancels every timer the runtime owns.
func (r *Runtime) Close() {
	if r.Controller != nil {
		r.Controller.Close()
	}
	if r.Monitor != nil {
		r.Monitor.Stop()
	}
}

// Manager hands out one Runtime per session and tears it down on release,
// so no timer outlives its session.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Runtime
	build    func(sessionID uuid.UUID) (*Runtime, error)
}

func NewManager(build func(sessionID uuid.UUID) (*Runtime, error)) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Runtime),
		build:    build,
	}
}

// Acquire returns the session's live runtime, building one on first use.
func (m *Manager) Acquire(sessionID uuid.UUID) (*Runtime, error) {
	if sessionID == uuid.Nil {
		return nil, ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.sessions[sessionID]; ok {
		return rt, nil
	}
	rt, err := m.build(sessionID)
	if err != nil {
		return nil, err
	}
	m.sessions[sessionID] = rt
	return rt, nil
}

// Release tears down the session's runtime. Safe for unknown sessions.
func (m *Manager) Release(sessionID uuid.UUID) {
	m.mu.Lock()
	rt, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		rt.Close()
	}
}
