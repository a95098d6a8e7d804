package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db}
}

func (r *SnapshotRepository) Save(sessionID uuid.UUID, stepIndex int, payloads string) error {
	snap := model.StateSnapshot{
		SessionID: sessionID,
		StepIndex: stepIndex,
		Payloads:  payloads,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"step_index", "payloads"}),
	}).Create(&snap).Error
}

// Find returns nil without error when no snapshot exists.
func (r *SnapshotRepository) Find(sessionID uuid.UUID) (*model.StateSnapshot, error) {
	var snap model.StateSnapshot
	err := r.db.First(&snap, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *SnapshotRepository) Clear(sessionID uuid.UUID) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&model.StateSnapshot{}).Error
}
