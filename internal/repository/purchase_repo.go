package repository

import (
	"context"
	"errors"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uint) (*models.Purchase, error) {
	var p models.Purchase
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) LockByID(ctx context.Context, id uint) (*models.Purchase, error) {
	var p models.Purchase
	err := forUpdate(r.db.WithContext(ctx)).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) Save(ctx context.Context, p *models.Purchase) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PurchaseRepository) ListByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.Purchase, error) {
	var list []models.Purchase
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
