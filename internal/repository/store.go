package repository

import "gorm.io/gorm"

// Store bundles every repository over one *gorm.DB, which may be a transaction.
type Store struct {
	DB            *gorm.DB
	Members       *MemberRepository
	Referrals     *ReferralRepository
	Wallets       *WalletRepository
	Levels        *LevelConfigRepository
	Ledger        *LedgerRepository
	Unlocks       *UnlockHistoryRepository
	Points        *PointRepository
	Reserve       *ReserveRepository
	Purchases     *PurchaseRepository
	Settings      *SettingRepository
	Notifications *NotificationRepository
	Reports       *ReportRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:            db,
		Members:       NewMemberRepository(db),
		Referrals:     NewReferralRepository(db),
		Wallets:       NewWalletRepository(db),
		Levels:        NewLevelConfigRepository(db),
		Ledger:        NewLedgerRepository(db),
		Unlocks:       NewUnlockHistoryRepository(db),
		Points:        NewPointRepository(db),
		Reserve:       NewReserveRepository(db),
		Purchases:     NewPurchaseRepository(db),
		Settings:      NewSettingRepository(db),
		Notifications: NewNotificationRepository(db),
		Reports:       NewReportRepository(db),
	}
}
