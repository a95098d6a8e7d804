package wizard

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Controller owns navigation over the fixed linear step sequence and is the
// only writer of the session's payload map. Collaborators (the analysis
// monitor, the scoring flow) feed results back through its methods.
type Controller struct {
	sess     *Session
	coord    *Coordinator
	registry *Registry

	mu      sync.Mutex
	notices []string
}

func NewController(sess *Session, coord *Coordinator, registry *Registry) *Controller {
	return &Controller{sess: sess, coord: coord, registry: registry}
}

func (c *Controller) Session() *Session {
	return c.sess
}

// CanAdvance evaluates the current step's gating predicate.
func (c *Controller) CanAdvance() bool {
	stepID := c.sess.CurrentStepID()
	return c.registry.CanAdvance(stepID, c.sess.Payload(stepID))
}

// Advance seals the current step as complete and moves forward, or finishes
// the session on the last step. Validation failures block and surface; a
// remote save failure degrades to the draft cache and does not block.
func (c *Controller) Advance() error {
	if c.sess == nil || c.sess.ID == uuid.Nil {
		return ErrInvalidSession
	}
	if !c.CanAdvance() {
		return ErrCannotAdvance
	}

	stepID := c.sess.CurrentStepID()
	c.sess.markComplete(stepID)
	if err := c.coord.SaveStepNow(c.sess, stepID); err != nil {
		// Data is in the draft cache; soft warning only.
		log.Printf("wizard: step %q saved locally only: %v", stepID, err)
		c.addNotice("Your progress was saved locally and will sync later.")
	}

	idx := c.sess.CurrentIndex()
	if idx >= len(c.sess.StepIDs())-1 {
		return c.coord.Complete(c.sess)
	}
	c.sess.setIndex(idx + 1)
	c.coord.SaveProgress(c.sess)
	return nil
}

// Back moves one step back. Never blocked, never persists the target step.
func (c *Controller) Back() {
	idx := c.sess.CurrentIndex()
	if idx > 0 {
		c.sess.setIndex(idx - 1)
		c.coord.SaveProgress(c.sess)
	}
}

// JumpTo revisits a completed (or current) step. Jumping ahead is refused.
func (c *Controller) JumpTo(stepID string) error {
	idx := c.sess.indexOf(stepID)
	if idx < 0 {
		return ErrUnknownStep
	}
	if idx > c.sess.CurrentIndex() {
		return ErrSkipAhead
	}
	c.sess.setIndex(idx)
	c.coord.SaveProgress(c.sess)
	return nil
}

// SetPayload records a step edit and schedules the debounced autosave.
func (c *Controller) SetPayload(stepID, payload string) {
	c.sess.SetPayload(stepID, payload)
	c.coord.ScheduleSave(c.sess, stepID)
}

// ApplyExtracted lands normalized CV data in the session. Registered as the
// analysis monitor's result callback so the monitor never touches the
// payload map itself.
func (c *Controller) ApplyExtracted(profile string) {
	if profile == "" {
		return
	}
	c.SetPayload("cv_analysis", profile)
}

// ResetToUpload returns the wizard to the CV upload step after an analysis
// restart and drops the locally held extracted data.
func (c *Controller) ResetToUpload() {
	c.sess.SetPayload("cv_analysis", "")
	if idx := c.sess.indexOf("cv_upload"); idx >= 0 && idx < c.sess.CurrentIndex() {
		c.sess.setIndex(idx)
	}
	c.coord.SaveProgress(c.sess)
}

// SaveAll is the explicit save-draft action.
func (c *Controller) SaveAll() error {
	return c.coord.SaveAll(c.sess)
}

func (c *Controller) addNotice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, msg)
}

// DrainNotices returns and clears accumulated soft warnings.
func (c *Controller) DrainNotices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// Close tears the session down, canceling every pending autosave timer.
func (c *Controller) Close() {
	c.coord.Close()
}
