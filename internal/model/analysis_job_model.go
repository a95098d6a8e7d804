package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisJob is one CV analysis attempt. Status only ever moves forward;
// restart deletes the row and creates a fresh one.
type AnalysisJob struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID      uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"session_id"`
	Status         string    `gorm:"type:varchar(50)" json:"status"` // not_started, uploading, analyzing, completed, failed, timeout
	JobRef         string    `gorm:"type:varchar(100)" json:"job_ref"`
	DocumentName   string    `gorm:"type:varchar(255)" json:"document_name"`
	ExtractedRef   string    `gorm:"type:text" json:"extracted_ref"`
	PollAttempts   int       `json:"poll_attempts"`
	ManualContinue bool      `json:"manual_continue"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (j *AnalysisJob) TableName() string {
	return "analysis_jobs"
}
