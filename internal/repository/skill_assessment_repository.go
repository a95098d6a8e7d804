package repository

import (
	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/naufalhakim/profile-builder/internal/response"
	"gorm.io/gorm"
)

type AssessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db}
}

func (r *AssessmentRepository) Create(a *model.SkillAssessment) error {
	return r.db.Create(a).Error
}

func (r *AssessmentRepository) Update(a *model.SkillAssessment) error {
	return r.db.Save(a).Error
}

func (r *AssessmentRepository) FindByID(id string) (*model.SkillAssessment, error) {
	var a model.SkillAssessment
	err := r.db.First(&a, "id = ?", id).Error
	return &a, err
}

func (r *AssessmentRepository) ListBySession(sessionID uuid.UUID) ([]model.SkillAssessment, error) {
	var list []model.SkillAssessment
	err := r.db.Where("session_id = ?", sessionID).Order("created_at desc").Find(&list).Error
	return list, err
}

func (r *AssessmentRepository) List(page, pageSize int) ([]model.SkillAssessment, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	var total int64
	if err := r.db.Model(&model.SkillAssessment{}).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var list []model.SkillAssessment
	err := r.db.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	if err != nil {
		return nil, nil, err
	}
	return list, response.NewPagination(page, pageSize, total), nil
}
