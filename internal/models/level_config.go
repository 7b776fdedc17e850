package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LevelConfig assigns a per-level CP percentage to a contiguous range of levels.
type LevelConfig struct {
	ID                      uint            `gorm:"primaryKey" json:"id"`
	LevelFrom               int             `gorm:"not null;uniqueIndex" json:"level_from" toml:"from" validate:"min=1,max=30"`
	LevelTo                 int             `gorm:"not null" json:"level_to" toml:"to" validate:"min=1,max=30,gtefield=LevelFrom"`
	CPPercentagePerLevel    decimal.Decimal `gorm:"column:cp_percentage_per_level;type:decimal(6,2);not null" json:"cp_percentage_per_level" toml:"percentage"`
	TotalPercentageForRange decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"total_percentage_for_range" toml:"total"`
	CreatedAt               time.Time       `json:"created_at" toml:"-"`
	UpdatedAt               time.Time       `json:"updated_at" toml:"-"`
}

func (LevelConfig) TableName() string { return "cp_level_configs" }

// LevelCount is the number of levels the row covers.
func (c LevelConfig) LevelCount() int { return c.LevelTo - c.LevelFrom + 1 }
