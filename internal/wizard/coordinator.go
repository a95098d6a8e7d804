package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/draft"
	"github.com/naufalhakim/profile-builder/internal/model"
)

// SectionStore is the remote, durable side of wizard persistence.
type SectionStore interface {
	Upsert(sessionID uuid.UUID, name, payload string, isComplete bool) error
	List(sessionID uuid.UUID) ([]model.ProfileSection, error)
	Delete(sessionID uuid.UUID, names []string) error
}

type SnapshotStore interface {
	Save(sessionID uuid.UUID, stepIndex int, payloads string) error
	Find(sessionID uuid.UUID) (*model.StateSnapshot, error)
	Clear(sessionID uuid.UUID) error
}

// DraftStore is the local, best-effort fallback.
type DraftStore interface {
	Write(sessionID uuid.UUID, snap draft.Snapshot) error
	Read(sessionID uuid.UUID) (*draft.Snapshot, error)
	Clear(sessionID uuid.UUID) error
}

// DraftOffer is presented to the user on load when a fresh local draft
// exists. It is never applied automatically.
type DraftOffer struct {
	StepIndex int       `json:"step_index"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinator reconciles the three persistence layers with a fixed
// precedence (complete remote section > remote snapshot > nothing; local
// draft only ever offered) and owns the autosave debounce timers.
type Coordinator struct {
	sections  SectionStore
	snapshots SnapshotStore
	drafts    DraftStore
	debounce  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewCoordinator(sections SectionStore, snapshots SnapshotStore, drafts DraftStore, debounce time.Duration) *Coordinator {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Coordinator{
		sections:  sections,
		snapshots: snapshots,
		drafts:    drafts,
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}
}

// Load reconstructs the session from the remote store. Complete sections
// are authoritative; the snapshot seeds the step index and any payload not
// already filled; a fresh local draft is offered back, never applied.
func (c *Coordinator) Load(sessionID uuid.UUID, registry *Registry) (*Session, *DraftOffer, error) {
	if sessionID == uuid.Nil {
		return nil, nil, ErrInvalidSession
	}

	sections, err := c.sections.List(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list sections: %w", err)
	}
	snap, err := c.snapshots.Find(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}

	sess := NewSession(sessionID, registry.IDs())

	if snap != nil {
		sess.setIndex(snap.StepIndex)
		var payloads map[string]string
		if err := json.Unmarshal([]byte(snap.Payloads), &payloads); err != nil {
			log.Printf("wizard: ignoring unreadable snapshot for %s: %v", sessionID, err)
		}
		for stepID, payload := range payloads {
			if payload != "" {
				sess.SetPayload(stepID, payload)
			}
		}
	}

	// Complete sections win over whatever the snapshot said.
	for _, section := range sections {
		if !section.IsComplete {
			continue
		}
		if section.Payload != "" {
			sess.SetPayload(section.Name, section.Payload)
		}
		sess.markComplete(section.Name)
	}

	var offer *DraftOffer
	if d, err := c.drafts.Read(sessionID); err != nil {
		log.Printf("wizard: draft cache read failed for %s: %v", sessionID, err)
	} else if d != nil {
		offer = &DraftOffer{StepIndex: d.StepIndex, CreatedAt: d.CreatedAt}
	}

	return sess, offer, nil
}

// ScheduleSave (re)starts the debounce timer for one step. Rapid edits to
// the same step collapse into a single remote write carrying the last
// payload; different steps debounce independently.
func (c *Coordinator) ScheduleSave(sess *Session, stepID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if t, ok := c.timers[stepID]; ok {
		t.Stop()
	}
	c.timers[stepID] = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		delete(c.timers, stepID)
		c.mu.Unlock()
		c.flush(sess, stepID)
	})
}

// flush performs the actual remote write for one step. Failures degrade to
// the local draft cache and never propagate: autosave must not crash the
// wizard.
func (c *Coordinator) flush(sess *Session, stepID string) {
	payload := sess.Payload(stepID)
	if payload == "" {
		return
	}
	if err := c.sections.Upsert(sess.ID, stepID, payload, sess.IsComplete(stepID)); err != nil {
		log.Printf("wizard: autosave of %q failed, keeping a local draft: %v", stepID, err)
		c.writeDraft(sess)
		return
	}
	sess.markSaved(time.Now())
	c.saveSnapshot(sess)
}

// SaveStepNow persists one step immediately, bypassing the debounce and
// canceling any pending timer for it. Used on step transitions.
func (c *Coordinator) SaveStepNow(sess *Session, stepID string) error {
	c.mu.Lock()
	if t, ok := c.timers[stepID]; ok {
		t.Stop()
		delete(c.timers, stepID)
	}
	c.mu.Unlock()

	payload := sess.Payload(stepID)
	if err := c.sections.Upsert(sess.ID, stepID, payload, sess.IsComplete(stepID)); err != nil {
		c.writeDraft(sess)
		return fmt.Errorf("save step %q: %w", stepID, err)
	}
	sess.markSaved(time.Now())
	c.saveSnapshot(sess)
	return nil
}

// SaveAll is the explicit "save draft" action: best-effort immediate save
// of every non-empty step. One section failing must not stop the others.
func (c *Coordinator) SaveAll(sess *Session) error {
	c.mu.Lock()
	for stepID, t := range c.timers {
		t.Stop()
		delete(c.timers, stepID)
	}
	c.mu.Unlock()

	var errs []error
	for stepID, payload := range sess.PayloadMap() {
		if err := c.sections.Upsert(sess.ID, stepID, payload, sess.IsComplete(stepID)); err != nil {
			errs = append(errs, fmt.Errorf("section %q: %w", stepID, err))
		}
	}
	if err := c.snapshotNow(sess); err != nil {
		errs = append(errs, fmt.Errorf("snapshot: %w", err))
	}

	if len(errs) > 0 {
		c.writeDraft(sess)
		return errors.Join(errs...)
	}
	sess.markSaved(time.Now())
	return nil
}

// Complete marks the profile permanently finished: every non-empty step is
// sealed as complete and the working snapshot and draft are discarded.
// Idempotent.
func (c *Coordinator) Complete(sess *Session) error {
	for stepID, payload := range sess.PayloadMap() {
		sess.markComplete(stepID)
		if err := c.sections.Upsert(sess.ID, stepID, payload, true); err != nil {
			return fmt.Errorf("seal section %q: %w", stepID, err)
		}
	}
	if err := c.snapshots.Clear(sess.ID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if err := c.drafts.Clear(sess.ID); err != nil {
		log.Printf("wizard: draft clear failed for %s: %v", sess.ID, err)
	}
	sess.markFinished()
	return nil
}

// AcceptDraft applies the offered local draft to the session and consumes
// it. Fails when the draft has expired in the meantime.
func (c *Coordinator) AcceptDraft(sess *Session) error {
	d, err := c.drafts.Read(sess.ID)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	if d == nil {
		return ErrNoDraft
	}
	for stepID, payload := range d.Payloads {
		if payload != "" {
			sess.SetPayload(stepID, payload)
		}
	}
	sess.setIndex(d.StepIndex)
	return c.drafts.Clear(sess.ID)
}

// DeclineDraft discards the offer.
func (c *Coordinator) DeclineDraft(sessionID uuid.UUID) error {
	return c.drafts.Clear(sessionID)
}

// SaveProgress persists the snapshot (index + payloads), best effort.
func (c *Coordinator) SaveProgress(sess *Session) {
	c.saveSnapshot(sess)
}

func (c *Coordinator) saveSnapshot(sess *Session) {
	if err := c.snapshotNow(sess); err != nil {
		log.Printf("wizard: snapshot save failed for %s: %v", sess.ID, err)
	}
}

func (c *Coordinator) snapshotNow(sess *Session) error {
	b, err := json.Marshal(sess.PayloadMap())
	if err != nil {
		return err
	}
	return c.snapshots.Save(sess.ID, sess.CurrentIndex(), string(b))
}

func (c *Coordinator) writeDraft(sess *Session) {
	err := c.drafts.Write(sess.ID, draft.Snapshot{
		StepIndex: sess.CurrentIndex(),
		Payloads:  sess.PayloadMap(),
	})
	if err != nil {
		// Both layers failing still must not take the wizard down.
		log.Printf("wizard: draft fallback write failed for %s: %v", sess.ID, err)
	}
}

// Close cancels every pending debounce timer. No write may fire after the
// owning session is gone.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for stepID, t := range c.timers {
		t.Stop()
		delete(c.timers, stepID)
	}
}
