package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileSection is one named chunk of wizard data in the remote store.
// IsComplete flips once the user has advanced past the owning step; a
// complete section's payload is authoritative on reload.
type ProfileSection struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_sections_session_name" json:"session_id"`
	Name       string    `gorm:"type:varchar(100);uniqueIndex:idx_sections_session_name" json:"name"`
	Payload    string    `gorm:"type:jsonb" json:"payload"`
	IsComplete bool      `json:"is_complete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *ProfileSection) TableName() string {
	return "profile_sections"
}
