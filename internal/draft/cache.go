// Package draft is the local, best-effort fallback store for wizard state.
// It is never authoritative: drafts are only offered back to the user, and
// anything older than the freshness window is discarded on sight.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a full copy of in-memory form state plus the current step.
type Snapshot struct {
	StepIndex int               `json:"step_index"`
	Payloads  map[string]string `json:"payloads"`
	CreatedAt time.Time         `json:"created_at"`
}

type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl, now: time.Now}
}

func (c *Cache) path(sessionID uuid.UUID) string {
	return filepath.Join(c.dir, sessionID.String()+".json")
}

// Write stores the snapshot, stamping it with the current time.
func (c *Cache) Write(sessionID uuid.UUID, snap Snapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("draft cache dir: %w", err)
	}
	snap.CreatedAt = c.now()
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return os.WriteFile(c.path(sessionID), b, 0o644)
}

// Read returns the stored snapshot, or nil when there is none or it has
// aged past the freshness window. Stale drafts are deleted on read.
func (c *Cache) Read(sessionID uuid.UUID) (*Snapshot, error) {
	b, err := os.ReadFile(c.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		// Corrupt drafts are worthless; drop them.
		_ = c.Clear(sessionID)
		return nil, nil
	}
	if c.now().Sub(snap.CreatedAt) > c.ttl {
		_ = c.Clear(sessionID)
		return nil, nil
	}
	return &snap, nil
}

func (c *Cache) Clear(sessionID uuid.UUID) error {
	err := os.Remove(c.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
