// Package engine holds the community point distribution rules: upline walks, level
// percentages, the unlock gate and the ledger recorder. It never opens transactions;
// callers hand it a Tx whose stores are bound to one.
package engine

import (
	"context"
	"time"

	"loyalty/internal/models"
)

type EdgeReader interface {
	ParentOf(ctx context.Context, childID uint) (uint, bool, error)
	CountDirectReferrals(ctx context.Context, parentID uint) (int64, error)
	// LockCountDirectReferrals counts with a shared lock so sign-ups committed
	// after the transaction snapshot are included.
	LockCountDirectReferrals(ctx context.Context, parentID uint) (int64, error)
}

type WalletStore interface {
	LockByMemberID(ctx context.Context, memberID uint) (*models.MemberWallet, error)
	Save(ctx context.Context, w *models.MemberWallet) error
}

type LedgerStore interface {
	LockCommunityPoint(ctx context.Context, memberID uint, level int) (*models.MemberCommunityPoint, error)
	LockCommunityPointsInRange(ctx context.Context, memberID uint, from, to int) ([]models.MemberCommunityPoint, error)
	CreateCommunityPoint(ctx context.Context, row *models.MemberCommunityPoint) error
	SaveCommunityPoint(ctx context.Context, row *models.MemberCommunityPoint) error
	CreateTransaction(ctx context.Context, tx *models.CpTransaction) error
	ReleaseTransactions(ctx context.Context, memberID uint, from, to int, at time.Time) (int64, error)
}

type UnlockStore interface {
	Create(ctx context.Context, h *models.CpUnlockHistory) error
}

type PointStore interface {
	Create(ctx context.Context, t *models.PointTransaction) error
}

type ReserveStore interface {
	Lock(ctx context.Context) (*models.CompanyReserve, error)
	Save(ctx context.Context, cr *models.CompanyReserve) error
}

// Tx is the set of stores bound to one database transaction.
type Tx struct {
	Edges   EdgeReader
	Wallets WalletStore
	Ledger  LedgerStore
	Unlocks UnlockStore
	Points  PointStore
	Reserve ReserveStore
}

// Notice is a member notification collected inside a transaction and sent after commit.
type Notice struct {
	MemberID uint
	Type     string
	Title    string
	Body     string
	Data     map[string]any
}

// Alerter raises system alerts for data corruption.
type Alerter interface {
	Alert(ctx context.Context, err error)
}
