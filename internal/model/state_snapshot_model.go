package model

import (
	"time"

	"github.com/google/uuid"
)

// StateSnapshot is the remote copy of the full in-progress wizard state:
// current step index plus every step payload, complete or not. Cleared when
// the profile is completed.
type StateSnapshot struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"session_id"`
	StepIndex int       `json:"step_index"`
	Payloads  string    `gorm:"type:jsonb" json:"payloads"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StateSnapshot) TableName() string {
	return "state_snapshots"
}
