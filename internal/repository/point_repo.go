package repository

import (
	"context"

	"loyalty/internal/models"

	"gorm.io/gorm"
)

type PointRepository struct {
	db *gorm.DB
}

func NewPointRepository(db *gorm.DB) *PointRepository {
	return &PointRepository{db: db}
}

func (r *PointRepository) Create(ctx context.Context, t *models.PointTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *PointRepository) ListByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.PointTransaction, error) {
	var list []models.PointTransaction
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *PointRepository) ListByEvent(ctx context.Context, eventID string) ([]models.PointTransaction, error) {
	var list []models.PointTransaction
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("id ASC").Find(&list).Error
	return list, err
}
