package models

import (
	"time"

	"loyalty/internal/domain"

	"github.com/shopspring/decimal"
)

// PointTransaction records PP, RP and reserve credits for wallet history.
// MemberID is nil for reserve and unallocated rows.
type PointTransaction struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	EventID   string           `gorm:"size:36;not null;index" json:"event_id"`
	MemberID  *uint            `gorm:"index" json:"member_id"`
	Kind      domain.PointKind `gorm:"size:20;not null;index" json:"kind"`
	Amount    decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount"`
	Reference string           `gorm:"size:128" json:"reference"` // e.g. registration_12, purchase_7
	CreatedAt time.Time        `json:"created_at"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
