package repository

import (
	"context"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalMembers    int64           `json:"total_members"`
	TotalReferrals  int64           `json:"total_referrals"`
	TotalPurchases  int64           `json:"total_purchases"`
	PendingPurchase int64           `json:"pending_purchases"`
	TotalCP         decimal.Decimal `json:"total_cp"`
	OnholdCP        decimal.Decimal `json:"onhold_cp"`
	UnlockEvents    int64           `json:"unlock_events"`
}

type StatusTotal struct {
	Status domain.TransactionStatus `json:"status"`
	Count  int64                    `json:"count"`
	Amount decimal.Decimal          `json:"amount"`
}

type CPSeriesPoint struct {
	Date   string          `json:"date"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// CpTransactionFilter narrows ledger listings. Zero values mean no filter.
type CpTransactionFilter struct {
	ReceiverID uint
	SourceID   uint
	Level      int
	Status     domain.TransactionStatus
	EventID    string
	From       *time.Time
	To         *time.Time
}

func (f CpTransactionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.ReceiverID != 0 {
		q = q.Where("receiver_member_id = ?", f.ReceiverID)
	}
	if f.SourceID != 0 {
		q = q.Where("source_member_id = ?", f.SourceID)
	}
	if f.Level != 0 {
		q = q.Where("level = ?", f.Level)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.EventID != "" {
		q = q.Where("event_id = ?", f.EventID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return q
}

// ReportRepository serves read-only admin and member reporting queries.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s DashboardStats
	if err := db.Model(&models.Member{}).Count(&s.TotalMembers).Error; err != nil {
		return nil, err
	}
	db.Model(&models.ReferralEdge{}).Count(&s.TotalReferrals)
	db.Model(&models.Purchase{}).Count(&s.TotalPurchases)
	db.Model(&models.Purchase{}).Where("status = ?", domain.PurchasePending).Count(&s.PendingPurchase)
	db.Model(&models.CpUnlockHistory{}).Count(&s.UnlockEvents)

	var sums struct {
		Total  decimal.Decimal
		Onhold decimal.Decimal
	}
	err := db.Model(&models.MemberCommunityPoint{}).
		Select("COALESCE(SUM(total_cp), 0) as total, COALESCE(SUM(onhold_cp), 0) as onhold").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	s.TotalCP = sums.Total
	s.OnholdCP = sums.Onhold
	return &s, nil
}

// ListMembers returns members with search and pagination.
func (r *ReportRepository) ListMembers(ctx context.Context, search string, page, limit int) ([]models.Member, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Member{})
	if search != "" {
		q = q.Where("name LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	var total int64
	q.Count(&total)
	var list []models.Member
	err := q.Preload("Wallet").Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListCpTransactions returns ledger legs matching the filter, newest first.
func (r *ReportRepository) ListCpTransactions(ctx context.Context, f CpTransactionFilter, page, limit int) ([]models.CpTransaction, int64, error) {
	q := f.apply(r.db.WithContext(ctx).Model(&models.CpTransaction{}))
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CpTransaction
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// CpTotalsByStatus sums ledger legs matching the filter per status.
func (r *ReportRepository) CpTotalsByStatus(ctx context.Context, f CpTransactionFilter) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := f.apply(r.db.WithContext(ctx).Model(&models.CpTransaction{})).
		Select("status, COUNT(*) as count, COALESCE(SUM(cp_amount), 0) as amount").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}

// ListUnlockHistory returns unlock audit rows, optionally for one member.
func (r *ReportRepository) ListUnlockHistory(ctx context.Context, memberID uint, page, limit int) ([]models.CpUnlockHistory, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CpUnlockHistory{})
	if memberID != 0 {
		q = q.Where("member_id = ?", memberID)
	}
	var total int64
	q.Count(&total)
	var list []models.CpUnlockHistory
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// ListPurchases returns purchases with optional status filter.
func (r *ReportRepository) ListPurchases(ctx context.Context, status string, page, limit int) ([]models.Purchase, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Purchase{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Purchase
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

// CPByDay returns daily distributed CP for the last N days.
func (r *ReportRepository) CPByDay(ctx context.Context, days int) ([]CPSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []CPSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.CpTransaction{}).
		Select("DATE(created_at) as date, COUNT(*) as count, COALESCE(SUM(cp_amount), 0) as amount").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
