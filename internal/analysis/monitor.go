// Package analysis drives the CV analysis job lifecycle: submission, status
// polling with a hard attempt ceiling, recovery of the derived profile data,
// and restart. A remote record (analysis_jobs) is the source of truth; the
// monitor holds only the live poll loop.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/service"
	"github.com/naufalhakim/profile-builder/internal/util"
)

// SectionCVAnalysis is the profile section holding CV-derived data. Restart
// removes it and nothing else.
const SectionCVAnalysis = "cv_analysis"

// DerivedSectionNames lists every section owned by the analysis flow.
var DerivedSectionNames = []string{SectionCVAnalysis}

var ErrSuperseded = errors.New("analysis job superseded by restart")

type JobStore interface {
	Create(job *model.AnalysisJob) error
	Update(job *model.AnalysisJob) error
	FindBySession(sessionID uuid.UUID) (*model.AnalysisJob, error)
	Delete(sessionID uuid.UUID) error
}

type SectionDeleter interface {
	Delete(sessionID uuid.UUID, names []string) error
}

type Config struct {
	PollInterval     time.Duration
	MaxPollAttempts  int
	FetchBaseDelay   time.Duration
	FetchMaxDelay    time.Duration
	FetchMaxAttempts int
	StuckAfter       time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:     2 * time.Second,
		MaxPollAttempts:  45,
		FetchBaseDelay:   500 * time.Millisecond,
		FetchMaxDelay:    8 * time.Second,
		FetchMaxAttempts: 5,
		StuckAfter:       5 * time.Minute,
	}
}

// Monitor owns at most one live poll loop per instance (one instance per
// wizard session). Every callback out of the loop re-checks that it still
// belongs to the active job before touching anything.
type Monitor struct {
	jobs     JobStore
	sections SectionDeleter
	client   service.ExtractorServiceInterface
	cfg      Config
	now      func() time.Time

	mu       sync.Mutex
	activeID uuid.UUID
	cancel   chan struct{}

	// onExtracted feeds normalized profile data back to the wizard; the
	// monitor never mutates wizard state directly.
	onExtracted func(sessionID uuid.UUID, profile string)
	// onReset returns the wizard to the upload step after a restart.
	onReset func(sessionID uuid.UUID)
}

func NewMonitor(jobs JobStore, sections SectionDeleter, client service.ExtractorServiceInterface, cfg Config) *Monitor {
	if cfg.MaxPollAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &Monitor{
		jobs:     jobs,
		sections: sections,
		client:   client,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (m *Monitor) OnExtracted(fn func(sessionID uuid.UUID, profile string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExtracted = fn
}

func (m *Monitor) OnReset(fn func(sessionID uuid.UUID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReset = fn
}

// Submit starts a fresh analysis attempt: cancels any prior loop, records
// the job as uploading, hands the document to the extraction service, and
// on acceptance begins polling.
func (m *Monitor) Submit(ctx context.Context, sessionID uuid.UUID, filename, document string) (*model.AnalysisJob, error) {
	m.mu.Lock()
	m.stopLocked()

	// A session has at most one job record; a new submission supersedes it.
	if err := m.jobs.Delete(sessionID); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("clear previous job: %w", err)
	}

	job := &model.AnalysisJob{
		SessionID:    sessionID,
		Status:       StatusUploading,
		DocumentName: filename,
	}
	if err := m.jobs.Create(job); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("create job record: %w", err)
	}
	m.activeID = job.ID
	cancel := make(chan struct{})
	m.cancel = cancel
	m.mu.Unlock()

	jobRef, err := m.client.Submit(ctx, sessionID, filename, document)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID != job.ID {
		// Restarted while the upload was in flight; drop the result.
		return nil, ErrSuperseded
	}
	if err != nil {
		m.applyTransition(job, StatusFailed)
		_ = m.jobs.Update(job)
		m.stopLocked()
		return job, fmt.Errorf("extraction service rejected job: %w", err)
	}

	job.JobRef = jobRef
	m.applyTransition(job, StatusAnalyzing)
	if err := m.jobs.Update(job); err != nil {
		log.Printf("analysis: failed to persist analyzing status: %v", err)
	}

	go m.pollLoop(job.ID, sessionID, jobRef, cancel)
	return job, nil
}

// pollLoop polls job status every PollInterval up to MaxPollAttempts, then
// declares a timeout. A single failed poll never fails the job.
func (m *Monitor) pollLoop(jobID, sessionID uuid.UUID, jobRef string, cancel chan struct{}) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= m.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}
		if !m.isActive(jobID) {
			return
		}

		status, err := m.client.GetStatus(context.Background(), jobRef)
		if err != nil {
			// Transient; keep polling.
			continue
		}

		switch status.Status {
		case StatusCompleted:
			m.finishCompleted(jobID, sessionID, cancel)
			return
		case StatusFailed:
			m.finish(jobID, sessionID, StatusFailed, "", false)
			return
		default:
			m.recordAttempt(jobID, sessionID, attempt)
		}
	}

	m.finish(jobID, sessionID, StatusTimeout, "", false)
}

// finishCompleted fetches the derived profile with capped exponential
// backoff; the data can lag the status flip. Exhausting retries still counts
// as completed, the user just continues manually.
func (m *Monitor) finishCompleted(jobID, sessionID uuid.UUID, cancel chan struct{}) {
	var normalized string
	delay := m.cfg.FetchBaseDelay

	for attempt := 0; attempt < m.cfg.FetchMaxAttempts; attempt++ {
		if attempt > 0 {
			if delay > m.cfg.FetchMaxDelay {
				delay = m.cfg.FetchMaxDelay
			}
			select {
			case <-cancel:
				return
			case <-time.After(delay):
			}
			delay *= 2
		}
		if !m.isActive(jobID) {
			return
		}

		raw, err := m.client.FetchDerived(context.Background(), sessionID)
		if err != nil {
			continue
		}
		if raw != "" {
			normalized = util.NormalizeExtracted(raw)
			break
		}
	}

	m.finish(jobID, sessionID, StatusCompleted, normalized, normalized == "")
}

// finish applies a terminal status, guarded against the job having been
// superseded between the poll request and its response.
func (m *Monitor) finish(jobID, sessionID uuid.UUID, status, extracted string, manualContinue bool) {
	m.mu.Lock()
	if m.activeID != jobID {
		m.mu.Unlock()
		return
	}

	job, err := m.jobs.FindBySession(sessionID)
	if err != nil || job == nil || job.ID != jobID {
		m.stopLocked()
		m.mu.Unlock()
		return
	}

	m.applyTransition(job, status)
	if status == StatusCompleted {
		job.ExtractedRef = extracted
		job.ManualContinue = manualContinue
	}
	if err := m.jobs.Update(job); err != nil {
		log.Printf("analysis: failed to persist %s status: %v", status, err)
	}

	m.stopLocked()
	cb := m.onExtracted
	m.mu.Unlock()

	if status == StatusCompleted && extracted != "" && cb != nil {
		cb(sessionID, extracted)
	}
}

// recordAttempt keeps the remote poll counter current, best effort.
func (m *Monitor) recordAttempt(jobID, sessionID uuid.UUID, attempt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID != jobID {
		return
	}
	job, err := m.jobs.FindBySession(sessionID)
	if err != nil || job == nil || job.ID != jobID {
		return
	}
	job.PollAttempts = attempt
	_ = m.jobs.Update(job)
}

// Restart cancels any live loop, deletes the job record and every
// CV-derived section, and sends the wizard back to the upload step. Safe to
// call with nothing live.
func (m *Monitor) Restart(sessionID uuid.UUID) error {
	m.mu.Lock()
	m.stopLocked()
	onReset := m.onReset
	m.mu.Unlock()

	if err := m.jobs.Delete(sessionID); err != nil {
		return fmt.Errorf("delete job record: %w", err)
	}
	if err := m.sections.Delete(sessionID, DerivedSectionNames); err != nil {
		return fmt.Errorf("delete derived sections: %w", err)
	}
	if onReset != nil {
		onReset(sessionID)
	}
	return nil
}

// Job returns the session's current job record, if any.
func (m *Monitor) Job(sessionID uuid.UUID) (*model.AnalysisJob, error) {
	return m.jobs.FindBySession(sessionID)
}

// Stop cancels the live poll loop on session teardown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
	m.activeID = uuid.Nil
}

func (m *Monitor) isActive(jobID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID == jobID
}

// applyTransition mutates job.Status only when the move is forward.
func (m *Monitor) applyTransition(job *model.AnalysisJob, to string) {
	if !transitionAllowed(job.Status, to) {
		log.Printf("analysis: refusing status transition %s -> %s for job %s", job.Status, to, job.ID)
		return
	}
	job.Status = to
}
