package repository

import (
	"context"
	"errors"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds SELECT ... FOR UPDATE. Drivers without row locks ignore it.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create opens a wallet at the base unlocked level.
func (r *WalletRepository) Create(ctx context.Context, memberID uint) (*models.MemberWallet, error) {
	w := &models.MemberWallet{MemberID: memberID, UnlockedLevel: domain.BaseUnlockedLevel}
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WalletRepository) GetByMemberID(ctx context.Context, memberID uint) (*models.MemberWallet, error) {
	var w models.MemberWallet
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.MissingWalletError{MemberID: memberID}
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// LockByMemberID reads the wallet with a row lock held until the transaction ends.
func (r *WalletRepository) LockByMemberID(ctx context.Context, memberID uint) (*models.MemberWallet, error) {
	var w models.MemberWallet
	err := forUpdate(r.db.WithContext(ctx)).Where("member_id = ?", memberID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.MissingWalletError{MemberID: memberID}
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Save(ctx context.Context, w *models.MemberWallet) error {
	return r.db.WithContext(ctx).Save(w).Error
}

// MembersWithStaleReferralCount returns members whose stored total_referrals differs from the graph.
func (r *WalletRepository) MembersWithStaleReferralCount(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.MemberWallet{}).
		Where("total_referrals <> (SELECT COUNT(*) FROM referral_edges e WHERE e.parent_member_id = member_wallets.member_id)").
		Pluck("member_id", &ids).Error
	return ids, err
}
