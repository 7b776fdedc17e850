package models

import (
	"time"

	"loyalty/internal/domain"

	"gorm.io/gorm"
)

type Member struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone     string         `gorm:"size:32" json:"phone"`
	Role      string         `gorm:"size:20;not null;index;default:'MEMBER'" json:"role"` // MEMBER | ADMIN
	FCMToken  string         `gorm:"size:512" json:"-"`                                   // For push notifications
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *MemberWallet `gorm:"foreignKey:MemberID" json:"wallet,omitempty"`
}

func (Member) TableName() string { return "members" }

func (m *Member) IsAdmin() bool { return m.Role == domain.RoleAdmin }
