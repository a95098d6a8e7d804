package repository

import (
	"github.com/naufalhakim/profile-builder/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db}
}

// SearchPositions returns the topK positions nearest to the embedding,
// using the pgvector distance operator.
func (r *PositionRepository) SearchPositions(embedding pgvector.Vector, topK int) ([]model.Position, error) {
	var positions []model.Position

	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM positions
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&positions).Error

	return positions, err
}

func (r *PositionRepository) CreatePosition(p *model.Position) error {
	return r.db.Create(p).Error
}

func (r *PositionRepository) UpdatePosition(p *model.Position) error {
	return r.db.Save(p).Error
}

func (r *PositionRepository) GetPositions() ([]model.Position, error) {
	var positions []model.Position
	err := r.db.Find(&positions).Error
	return positions, err
}
