package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the in-memory model of one user's profile build: the step
// sequence, the cursor, and the opaque per-step payloads. Only the wizard
// layer mutates it; collaborators hand results back through callbacks.
type Session struct {
	ID      uuid.UUID
	stepIDs []string

	mu          sync.RWMutex
	current     int
	payloads    map[string]string
	completed   map[string]bool
	finished    bool
	lastSavedAt time.Time
}

func NewSession(id uuid.UUID, stepIDs []string) *Session {
	return &Session{
		ID:        id,
		stepIDs:   stepIDs,
		payloads:  make(map[string]string),
		completed: make(map[string]bool),
	}
}

func (s *Session) StepIDs() []string {
	out := make([]string, len(s.stepIDs))
	copy(out, s.stepIDs)
	return out
}

func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Session) CurrentStepID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 || s.current >= len(s.stepIDs) {
		return ""
	}
	return s.stepIDs[s.current]
}

func (s *Session) setIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if i > len(s.stepIDs)-1 {
		i = len(s.stepIDs) - 1
	}
	s.current = i
}

func (s *Session) indexOf(stepID string) int {
	for i, id := range s.stepIDs {
		if id == stepID {
			return i
		}
	}
	return -1
}

func (s *Session) Payload(stepID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payloads[stepID]
}

func (s *Session) SetPayload(stepID, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[stepID] = payload
}

// PayloadMap returns a copy of every non-empty payload.
func (s *Session) PayloadMap() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.payloads))
	for k, v := range s.payloads {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (s *Session) IsComplete(stepID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed[stepID]
}

func (s *Session) markComplete(stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[stepID] = true
}

// CompletedSteps returns the set of steps the user has advanced past.
func (s *Session) CompletedSteps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.stepIDs {
		if s.completed[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

func (s *Session) markFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
}

func (s *Session) LastSavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSavedAt
}

func (s *Session) markSaved(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastSavedAt) {
		s.lastSavedAt = t
	}
}
