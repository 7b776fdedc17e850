package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberCommunityPoint is a member's CP balance at one level.
// Invariant: TotalCP == AvailableCP + OnholdCP.
type MemberCommunityPoint struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MemberID    uint            `gorm:"not null;uniqueIndex:idx_member_level" json:"member_id"`
	Level       int             `gorm:"not null;uniqueIndex:idx_member_level" json:"level"`
	TotalCP     decimal.Decimal `gorm:"column:total_cp;type:decimal(20,2);not null;default:0" json:"total_cp"`
	AvailableCP decimal.Decimal `gorm:"column:available_cp;type:decimal(20,2);not null;default:0" json:"available_cp"`
	OnholdCP    decimal.Decimal `gorm:"column:onhold_cp;type:decimal(20,2);not null;default:0" json:"onhold_cp"`
	IsLocked    bool            `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (MemberCommunityPoint) TableName() string { return "member_community_points" }
