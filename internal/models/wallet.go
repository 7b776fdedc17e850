package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberWallet aggregates a member's point balances and unlock state.
// Invariant: AvailablePoints + OnholdPoints <= TotalPoints.
type MemberWallet struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MemberID        uint            `gorm:"uniqueIndex;not null" json:"member_id"`
	TotalReferrals  int             `gorm:"not null;default:0" json:"total_referrals"`
	UnlockedLevel   int             `gorm:"not null;default:5" json:"unlocked_level"`
	OnholdPoints    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"onhold_points"`
	AvailablePoints decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"available_points"`
	TotalPoints     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_points"`
	TotalRP         decimal.Decimal `gorm:"column:total_rp;type:decimal(20,2);not null;default:0" json:"total_rp"`
	TotalPP         decimal.Decimal `gorm:"column:total_pp;type:decimal(20,2);not null;default:0" json:"total_pp"`
	TotalCP         decimal.Decimal `gorm:"column:total_cp;type:decimal(20,2);not null;default:0" json:"total_cp"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (MemberWallet) TableName() string { return "member_wallets" }

// CreditCP adds a community point leg to the wallet.
func (w *MemberWallet) CreditCP(amount decimal.Decimal, locked bool) {
	w.TotalCP = w.TotalCP.Add(amount)
	w.TotalPoints = w.TotalPoints.Add(amount)
	if locked {
		w.OnholdPoints = w.OnholdPoints.Add(amount)
	} else {
		w.AvailablePoints = w.AvailablePoints.Add(amount)
	}
}

// Release moves amount from on-hold to available.
func (w *MemberWallet) Release(amount decimal.Decimal) {
	w.OnholdPoints = w.OnholdPoints.Sub(amount)
	w.AvailablePoints = w.AvailablePoints.Add(amount)
}
