package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyReserve is the single company accumulator, always stored under domain.CompanyReserveID.
type CompanyReserve struct {
	ID                uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TotalReserve      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_reserve"`
	UnallocatedPoints decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"unallocated_points"` // CP/RP with no receiver
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (CompanyReserve) TableName() string { return "company_reserves" }
