package repository

import (
	"context"

	"loyalty/internal/models"

	"gorm.io/gorm"
)

type UnlockHistoryRepository struct {
	db *gorm.DB
}

func NewUnlockHistoryRepository(db *gorm.DB) *UnlockHistoryRepository {
	return &UnlockHistoryRepository{db: db}
}

func (r *UnlockHistoryRepository) Create(ctx context.Context, h *models.CpUnlockHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *UnlockHistoryRepository) ListByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.CpUnlockHistory, error) {
	var list []models.CpUnlockHistory
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
