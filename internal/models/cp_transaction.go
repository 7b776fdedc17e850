package models

import (
	"time"

	"loyalty/internal/domain"

	"github.com/shopspring/decimal"
)

// CpTransaction is one append-only CP ledger leg: one per (event, level, receiver).
// Only Status, TransactionType and ReleasedAt ever change, and only onhold -> released.
type CpTransaction struct {
	ID               uint                     `gorm:"primaryKey" json:"id"`
	EventID          string                   `gorm:"size:36;not null;index" json:"event_id"`
	Reason           domain.Reason            `gorm:"size:20;not null" json:"reason"`
	PurchaseID       *uint                    `gorm:"index" json:"purchase_id,omitempty"`
	SourceMemberID   uint                     `gorm:"not null;index" json:"source_member_id"`
	ReceiverMemberID uint                     `gorm:"not null;index:idx_cp_tx_receiver_level" json:"receiver_member_id"`
	Level            int                      `gorm:"not null;index:idx_cp_tx_receiver_level" json:"level"`
	CPPercentage     decimal.Decimal          `gorm:"column:cp_percentage;type:decimal(6,2);not null" json:"cp_percentage"`
	CPAmount         decimal.Decimal          `gorm:"column:cp_amount;type:decimal(20,2);not null" json:"cp_amount"`
	IsLocked         bool                     `gorm:"not null" json:"is_locked"`
	Status           domain.TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	TransactionType  domain.TransactionType   `gorm:"size:20;not null" json:"transaction_type"`
	LockedAt         *time.Time               `json:"locked_at"`
	ReleasedAt       *time.Time               `json:"released_at"`
	CreatedAt        time.Time                `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func (CpTransaction) TableName() string { return "cp_transactions" }
