package repository

import (
	"context"
	"errors"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository persists CP ledger legs and per-level CP balances.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// LockCommunityPoint returns the locked (member, level) balance row, or nil when it does not exist yet.
func (r *LedgerRepository) LockCommunityPoint(ctx context.Context, memberID uint, level int) (*models.MemberCommunityPoint, error) {
	var row models.MemberCommunityPoint
	err := forUpdate(r.db.WithContext(ctx)).
		Where("member_id = ? AND level = ?", memberID, level).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// LockCommunityPointsInRange locks the member's balance rows for levels from..to inclusive.
func (r *LedgerRepository) LockCommunityPointsInRange(ctx context.Context, memberID uint, from, to int) ([]models.MemberCommunityPoint, error) {
	var rows []models.MemberCommunityPoint
	err := forUpdate(r.db.WithContext(ctx)).
		Where("member_id = ? AND level BETWEEN ? AND ?", memberID, from, to).
		Order("level ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LedgerRepository) CreateCommunityPoint(ctx context.Context, row *models.MemberCommunityPoint) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *LedgerRepository) SaveCommunityPoint(ctx context.Context, row *models.MemberCommunityPoint) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *LedgerRepository) CreateTransaction(ctx context.Context, tx *models.CpTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ReleaseTransactions flips onhold legs for levels from..to to released.
func (r *LedgerRepository) ReleaseTransactions(ctx context.Context, memberID uint, from, to int, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.CpTransaction{}).
		Where("receiver_member_id = ? AND level BETWEEN ? AND ? AND status = ?", memberID, from, to, domain.StatusOnHold).
		Updates(map[string]interface{}{
			"status":           domain.StatusReleased,
			"transaction_type": domain.TxUnlocked,
			"released_at":      at,
		})
	return res.RowsAffected, res.Error
}

func (r *LedgerRepository) ListCommunityPoints(ctx context.Context, memberID uint) ([]models.MemberCommunityPoint, error) {
	var rows []models.MemberCommunityPoint
	err := r.db.WithContext(ctx).Where("member_id = ?", memberID).Order("level ASC").Find(&rows).Error
	return rows, err
}

func (r *LedgerRepository) ListByEvent(ctx context.Context, eventID string) ([]models.CpTransaction, error) {
	var list []models.CpTransaction
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("level ASC").Find(&list).Error
	return list, err
}

// MembersWithStrandedHolds returns members holding onhold CP at levels they have already unlocked.
func (r *LedgerRepository) MembersWithStrandedHolds(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.MemberCommunityPoint{}).
		Joins("JOIN member_wallets w ON w.member_id = member_community_points.member_id").
		Where("member_community_points.onhold_cp > 0 AND member_community_points.level <= w.unlocked_level").
		Distinct().
		Pluck("member_community_points.member_id", &ids).Error
	return ids, err
}
