package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"gorm.io/gorm"
)

type AnalysisJobRepository struct {
	db *gorm.DB
}

func NewAnalysisJobRepository(db *gorm.DB) *AnalysisJobRepository {
	return &AnalysisJobRepository{db}
}

func (r *AnalysisJobRepository) Create(job *model.AnalysisJob) error {
	return r.db.Create(job).Error
}

func (r *AnalysisJobRepository) Update(job *model.AnalysisJob) error {
	return r.db.Save(job).Error
}

// FindBySession returns nil without error when the session has no job.
func (r *AnalysisJobRepository) FindBySession(sessionID uuid.UUID) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	err := r.db.First(&job, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *AnalysisJobRepository) Delete(sessionID uuid.UUID) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&model.AnalysisJob{}).Error
}
