package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Purchase struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	MemberID   uint            `gorm:"not null;index" json:"member_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PointPool  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"point_pool"`
	Reference  string          `gorm:"size:128" json:"reference"`
	Status     string          `gorm:"size:20;not null;index" json:"status"` // PENDING, APPROVED, REJECTED
	EventID    string          `gorm:"size:36" json:"event_id,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`

	Member Member `gorm:"foreignKey:MemberID" json:"-"`
}

func (Purchase) TableName() string { return "purchases" }
