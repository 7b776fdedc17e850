package engine

import (
	"context"
	"fmt"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// Entry is one CP leg to record: a single (event, level, receiver).
type Entry struct {
	EventID          string
	Reason           domain.Reason
	PurchaseID       *uint
	SourceMemberID   uint
	ReceiverMemberID uint
	Level            int
	Percentage       decimal.Decimal
	Amount           decimal.Decimal
	IsLocked         bool
}

// Ledger records CP legs. It does no percentage math and no traversal.
type Ledger struct {
	clock clockwork.Clock
}

func NewLedger(clock clockwork.Clock) *Ledger {
	return &Ledger{clock: clock}
}

// RecordDistribution appends the leg and adds its amount to the (receiver, level) balance,
// creating that balance row on first use.
func (l *Ledger) RecordDistribution(ctx context.Context, store LedgerStore, e Entry) (*models.CpTransaction, error) {
	row, err := store.LockCommunityPoint(ctx, e.ReceiverMemberID, e.Level)
	if err != nil {
		return nil, fmt.Errorf("lock community point %d/%d: %w", e.ReceiverMemberID, e.Level, err)
	}
	created := row == nil
	if created {
		row = &models.MemberCommunityPoint{
			MemberID:    e.ReceiverMemberID,
			Level:       e.Level,
			TotalCP:     decimal.Zero,
			AvailableCP: decimal.Zero,
			OnholdCP:    decimal.Zero,
		}
	}
	row.TotalCP = row.TotalCP.Add(e.Amount)
	if e.IsLocked {
		row.OnholdCP = row.OnholdCP.Add(e.Amount)
	} else {
		row.AvailableCP = row.AvailableCP.Add(e.Amount)
	}
	row.IsLocked = e.IsLocked

	if created {
		err = store.CreateCommunityPoint(ctx, row)
	} else {
		err = store.SaveCommunityPoint(ctx, row)
	}
	if err != nil {
		return nil, fmt.Errorf("write community point %d/%d: %w", e.ReceiverMemberID, e.Level, err)
	}

	status := domain.StatusFor(e.IsLocked)
	leg := &models.CpTransaction{
		EventID:          e.EventID,
		Reason:           e.Reason,
		PurchaseID:       e.PurchaseID,
		SourceMemberID:   e.SourceMemberID,
		ReceiverMemberID: e.ReceiverMemberID,
		Level:            e.Level,
		CPPercentage:     e.Percentage,
		CPAmount:         e.Amount,
		IsLocked:         e.IsLocked,
		Status:           status,
		TransactionType:  domain.TxEarned,
	}
	if e.IsLocked {
		now := l.clock.Now()
		leg.LockedAt = &now
	}
	if err := store.CreateTransaction(ctx, leg); err != nil {
		return nil, fmt.Errorf("append cp leg: %w", err)
	}
	return leg, nil
}
