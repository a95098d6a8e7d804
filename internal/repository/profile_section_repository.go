package repository

import (
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db}
}

// Upsert writes one section keyed by (session, name). A section that is
// already complete stays complete even if a later autosave passes false.
func (r *SectionRepository) Upsert(sessionID uuid.UUID, name, payload string, isComplete bool) error {
	section := model.ProfileSection{
		SessionID:  sessionID,
		Name:       name,
		Payload:    payload,
		IsComplete: isComplete,
	}
	assignments := map[string]any{"payload": payload}
	if isComplete {
		assignments["is_complete"] = true
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&section).Error
}

func (r *SectionRepository) List(sessionID uuid.UUID) ([]model.ProfileSection, error) {
	var sections []model.ProfileSection
	err := r.db.Where("session_id = ?", sessionID).Find(&sections).Error
	return sections, err
}

func (r *SectionRepository) Delete(sessionID uuid.UUID, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.Where("session_id = ? AND name IN ?", sessionID, names).
		Delete(&model.ProfileSection{}).Error
}
