package model

import (
	"time"

	"github.com/google/uuid"
)

// SkillAssessment is one verification attempt for one skill. The row is
// immutable once scored; a retake creates a new row.
type SkillAssessment struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID     uuid.UUID `gorm:"type:uuid;index" json:"session_id"`
	SkillName     string    `gorm:"type:varchar(100)" json:"skill_name"`
	RequiredLevel int       `json:"required_level"` // 1 basic, 2 intermediate, 3 advanced
	Questions     string    `gorm:"type:jsonb" json:"questions"`
	Responses     string    `gorm:"type:jsonb" json:"responses"`
	Score         float64   `gorm:"type:float" json:"score"`
	Level         int       `json:"level"`
	Confidence    float64   `gorm:"type:float" json:"confidence"`
	Passed        bool      `json:"passed"`
	Scored        bool      `json:"scored"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *SkillAssessment) TableName() string {
	return "skill_assessments"
}
