package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralCode is a unique invite code belonging to a member.
// Each member has at most one referral code.
type ReferralCode struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MemberID  uint           `gorm:"uniqueIndex;not null" json:"member_id"`
	Code      string         `gorm:"uniqueIndex;size:20;not null" json:"code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

// ReferralEdge links a sponsor to a member they referred.
// A member has exactly one sponsor; edges are written once at registration and never change.
type ReferralEdge struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ParentMemberID uint      `gorm:"not null;index" json:"parent_member_id"`
	ChildMemberID  uint      `gorm:"uniqueIndex;not null" json:"child_member_id"` // one sponsor per member
	CreatedAt      time.Time `json:"created_at"`

	Child Member `gorm:"foreignKey:ChildMemberID" json:"child,omitempty"`
}

func (ReferralEdge) TableName() string { return "referral_edges" }
