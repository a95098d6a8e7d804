package analysis

import (
	"github.com/google/uuid"
)

// StuckReport describes a job that is recorded as running but has exceeded
// any plausible completion window. It is a recovery offer, not a failure:
// the user is told analysis finished without data and offered a restart.
type StuckReport struct {
	JobID   uuid.UUID `json:"job_id"`
	Status  string    `json:"status"`
	AgeSecs int64     `json:"age_secs"`
	Message string    `json:"message"`
}

// CheckStuck runs on session reload, never during live polling. It only
// fires while a document is still associated with the session, so a cleared
// session can never resurrect a stale job record.
func (m *Monitor) CheckStuck(sessionID uuid.UUID) (*StuckReport, error) {
	job, err := m.jobs.FindBySession(sessionID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.DocumentName == "" {
		return nil, nil
	}

	// A loop this monitor is actively driving is not stuck.
	m.mu.Lock()
	live := m.activeID == job.ID
	m.mu.Unlock()
	if live {
		return nil, nil
	}

	age := m.now().Sub(job.CreatedAt)
	if age <= m.cfg.StuckAfter {
		return nil, nil
	}

	switch job.Status {
	case StatusAnalyzing:
		// Practically dead: whatever happened, the poll loop that owned
		// this job is gone.
		return &StuckReport{
			JobID:   job.ID,
			Status:  job.Status,
			AgeSecs: int64(age.Seconds()),
			Message: "Your CV analysis finished but no extracted data was found. You can restart the analysis or continue filling in your profile manually.",
		}, nil
	case StatusUploading:
		// Accepted but never progressed past the first sub-state.
		return &StuckReport{
			JobID:   job.ID,
			Status:  job.Status,
			AgeSecs: int64(age.Seconds()),
			Message: "Your CV upload never finished processing. You can restart the analysis or continue manually.",
		}, nil
	}
	return nil, nil
}
