package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SystemSetting is a runtime override row. The purchase split percentages
// (purchase_split_pp, _rp, _cp, _cr) are the only keys written today; a missing
// key falls back to the configured default.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:32;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string { return "cp_settings" }

// Percentage parses Value as a non-negative percentage with at most 2 decimal places.
func (s SystemSetting) Percentage() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("setting %s: %w", s.Key, err)
	}
	if d.IsNegative() || !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("setting %s: %q is not a percentage", s.Key, s.Value)
	}
	return d, nil
}
