package repository

import (
	"context"

	"loyalty/internal/models"

	"gorm.io/gorm"
)

type LevelConfigRepository struct {
	db *gorm.DB
}

func NewLevelConfigRepository(db *gorm.DB) *LevelConfigRepository {
	return &LevelConfigRepository{db: db}
}

func (r *LevelConfigRepository) List(ctx context.Context) ([]models.LevelConfig, error) {
	var rows []models.LevelConfig
	err := r.db.WithContext(ctx).Order("level_from ASC").Find(&rows).Error
	return rows, err
}

// ReplaceAll swaps the whole set. Callers run it inside a transaction.
func (r *LevelConfigRepository) ReplaceAll(ctx context.Context, rows []models.LevelConfig) error {
	db := r.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.LevelConfig{}).Error; err != nil {
		return err
	}
	fresh := make([]models.LevelConfig, len(rows))
	for i, row := range rows {
		fresh[i] = models.LevelConfig{
			LevelFrom:               row.LevelFrom,
			LevelTo:                 row.LevelTo,
			CPPercentagePerLevel:    row.CPPercentagePerLevel,
			TotalPercentageForRange: row.TotalPercentageForRange,
		}
	}
	return db.Create(&fresh).Error
}

// SeedDefaults inserts rows only when the table is empty.
func (r *LevelConfigRepository) SeedDefaults(ctx context.Context, rows []models.LevelConfig) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LevelConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.ReplaceAll(ctx, rows)
}
