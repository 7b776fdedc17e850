package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CpUnlockHistory is an audit row written once per unlock event.
type CpUnlockHistory struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	MemberID              uint            `gorm:"not null;index" json:"member_id"`
	PreviousReferrals     int             `gorm:"not null" json:"previous_referrals"`
	NewReferrals          int             `gorm:"not null" json:"new_referrals"`
	PreviousUnlockedLevel int             `gorm:"not null" json:"previous_unlocked_level"`
	NewUnlockedLevel      int             `gorm:"not null" json:"new_unlocked_level"`
	ReleasedCPAmount      decimal.Decimal `gorm:"column:released_cp_amount;type:decimal(20,2);not null" json:"released_cp_amount"`
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`
}

func (CpUnlockHistory) TableName() string { return "cp_unlock_histories" }
