package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// generateReferralCode returns an 8-character hex referral code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil // 8 hex chars, e.g. "a3f2c1b0"
}

// GetOrCreateCode returns the existing referral code for a member, or creates a new unique one.
func (r *ReferralRepository) GetOrCreateCode(ctx context.Context, memberID uint) (*models.ReferralCode, error) {
	db := r.db.WithContext(ctx)
	var rc models.ReferralCode
	if err := db.Where("member_id = ?", memberID).First(&rc).Error; err == nil {
		return &rc, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		var taken int64
		if err := db.Model(&models.ReferralCode{}).Where("code = ?", code).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			continue
		}
		rc = models.ReferralCode{MemberID: memberID, Code: code, IsActive: true}
		if err := db.Create(&rc).Error; err != nil {
			return nil, err
		}
		return &rc, nil
	}
	return nil, fmt.Errorf("failed to generate a unique referral code after retries")
}

// GetByCode returns an active ReferralCode matching the given code string.
func (r *ReferralRepository) GetByCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	var rc models.ReferralCode
	err := r.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvalidReferralCode
	}
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// CreateEdge persists a sponsor -> member edge.
func (r *ReferralRepository) CreateEdge(ctx context.Context, edge *models.ReferralEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// ParentOf returns the sponsor of childID; ok is false for root members.
func (r *ReferralRepository) ParentOf(ctx context.Context, childID uint) (uint, bool, error) {
	var edge models.ReferralEdge
	err := r.db.WithContext(ctx).Select("parent_member_id").Where("child_member_id = ?", childID).Take(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return edge.ParentMemberID, true, nil
}

func directReferrals(db *gorm.DB, parentID uint) *gorm.DB {
	return db.Model(&models.ReferralEdge{}).Where("parent_member_id = ?", parentID)
}

// CountDirectReferrals counts members directly sponsored by parentID.
func (r *ReferralRepository) CountDirectReferrals(ctx context.Context, parentID uint) (int64, error) {
	var n int64
	err := directReferrals(r.db.WithContext(ctx), parentID).Count(&n).Error
	return n, err
}

// LockCountDirectReferrals is CountDirectReferrals as a locking read. Under
// REPEATABLE READ a plain count sees the transaction snapshot, so a sibling
// committed after the snapshot would be missed.
func (r *ReferralRepository) LockCountDirectReferrals(ctx context.Context, parentID uint) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"})
	err := directReferrals(db, parentID).Count(&n).Error
	return n, err
}

// ListChildren returns the members directly sponsored by parentID, newest first.
func (r *ReferralRepository) ListChildren(ctx context.Context, parentID uint, limit, offset int) ([]models.ReferralEdge, error) {
	var list []models.ReferralEdge
	err := r.db.WithContext(ctx).Where("parent_member_id = ?", parentID).
		Preload("Child").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
