package repository

import (
	"context"
	"errors"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReserveRepository reads and writes the company reserve singleton by its fixed ID.
type ReserveRepository struct {
	db *gorm.DB
}

func NewReserveRepository(db *gorm.DB) *ReserveRepository {
	return &ReserveRepository{db: db}
}

// Ensure creates the singleton row if it is missing.
func (r *ReserveRepository) Ensure(ctx context.Context) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CompanyReserve{ID: domain.CompanyReserveID}).Error
}

func (r *ReserveRepository) Get(ctx context.Context) (*models.CompanyReserve, error) {
	var cr models.CompanyReserve
	if err := r.db.WithContext(ctx).First(&cr, domain.CompanyReserveID).Error; err != nil {
		return nil, err
	}
	return &cr, nil
}

// Lock returns the reserve row under a row lock, creating it on first use.
func (r *ReserveRepository) Lock(ctx context.Context) (*models.CompanyReserve, error) {
	var cr models.CompanyReserve
	err := forUpdate(r.db.WithContext(ctx)).First(&cr, domain.CompanyReserveID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cr = models.CompanyReserve{ID: domain.CompanyReserveID}
		if err := r.db.WithContext(ctx).Create(&cr).Error; err != nil {
			return nil, err
		}
		return &cr, nil
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *ReserveRepository) Save(ctx context.Context, cr *models.CompanyReserve) error {
	return r.db.WithContext(ctx).Save(cr).Error
}
