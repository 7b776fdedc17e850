package engine

import (
	"context"
	"fmt"
	"log/slog"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// UnlockedLevelFor maps a direct-referral count to the unlocked level ceiling.
func UnlockedLevelFor(referrals int) int {
	switch {
	case referrals <= 0:
		return 5
	case referrals == 1:
		return 10
	case referrals == 2:
		return 15
	case referrals == 3:
		return 20
	case referrals == 4:
		return 25
	default:
		return 30
	}
}

// UnlockResult describes one gate evaluation. Unlocked is false when nothing changed level.
type UnlockResult struct {
	MemberID          uint
	PreviousReferrals int
	NewReferrals      int
	PreviousLevel     int
	NewLevel          int
	Unlocked          bool
	Released          decimal.Decimal
	ReleasedLegs      int64
	Notices           []Notice
}

// Gate owns wallet.unlocked_level and the unlock history.
type Gate struct {
	clock clockwork.Clock
	log   *slog.Logger
}

func NewGate(clock clockwork.Clock, log *slog.Logger) *Gate {
	return &Gate{clock: clock, log: log}
}

// OnReferralCountChanged recounts memberID's direct referrals and, when the ceiling
// rises, releases the on-hold CP of every newly unlocked level.
func (g *Gate) OnReferralCountChanged(ctx context.Context, tx Tx, memberID uint) (*UnlockResult, error) {
	return g.apply(ctx, tx, memberID, false)
}

// Reconcile is OnReferralCountChanged plus a release of on-hold CP left at levels the
// member had already unlocked.
func (g *Gate) Reconcile(ctx context.Context, tx Tx, memberID uint) (*UnlockResult, error) {
	return g.apply(ctx, tx, memberID, true)
}

func (g *Gate) apply(ctx context.Context, tx Tx, memberID uint, stranded bool) (*UnlockResult, error) {
	w, err := tx.Wallets.LockByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	count, err := tx.Edges.LockCountDirectReferrals(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("count referrals of %d: %w", memberID, err)
	}

	res := &UnlockResult{
		MemberID:          memberID,
		PreviousReferrals: w.TotalReferrals,
		NewReferrals:      int(count),
		PreviousLevel:     w.UnlockedLevel,
		NewLevel:          w.UnlockedLevel,
		Released:          decimal.Zero,
	}
	w.TotalReferrals = int(count)

	from, to := w.UnlockedLevel+1, w.UnlockedLevel
	if target := UnlockedLevelFor(int(count)); target > w.UnlockedLevel {
		to = target
		res.NewLevel = target
		res.Unlocked = true
	}
	if stranded {
		from = 1
	}
	if from <= to {
		res.Released, res.ReleasedLegs, err = g.release(ctx, tx, w, from, to)
		if err != nil {
			return nil, err
		}
	}
	w.UnlockedLevel = res.NewLevel

	changed := res.Unlocked || res.Released.IsPositive()
	if !changed && res.PreviousReferrals == res.NewReferrals {
		return res, nil
	}
	if err := tx.Wallets.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("save wallet of %d: %w", memberID, err)
	}
	if !changed {
		return res, nil
	}

	err = tx.Unlocks.Create(ctx, &models.CpUnlockHistory{
		MemberID:              memberID,
		PreviousReferrals:     res.PreviousReferrals,
		NewReferrals:          res.NewReferrals,
		PreviousUnlockedLevel: res.PreviousLevel,
		NewUnlockedLevel:      res.NewLevel,
		ReleasedCPAmount:      res.Released,
	})
	if err != nil {
		return nil, fmt.Errorf("write unlock history of %d: %w", memberID, err)
	}

	g.log.Info("unlock: levels released",
		"member_id", memberID,
		"from_level", res.PreviousLevel,
		"to_level", res.NewLevel,
		"released", res.Released.StringFixed(2),
		"legs", res.ReleasedLegs)

	res.Notices = append(res.Notices, Notice{
		MemberID: memberID,
		Type:     domain.NotifyLevelUnlock,
		Title:    "Levels unlocked",
		Body:     fmt.Sprintf("You can now earn up to level %d. %s CP moved to your available balance.", res.NewLevel, res.Released.StringFixed(2)),
		Data: map[string]any{
			"previous_level": res.PreviousLevel,
			"new_level":      res.NewLevel,
			"released_cp":    res.Released.StringFixed(2),
		},
	})
	return res, nil
}

// release moves on-hold CP at levels from..to into available and flips the matching legs.
func (g *Gate) release(ctx context.Context, tx Tx, w *models.MemberWallet, from, to int) (decimal.Decimal, int64, error) {
	rows, err := tx.Ledger.LockCommunityPointsInRange(ctx, w.MemberID, from, to)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("lock community points of %d: %w", w.MemberID, err)
	}
	total := decimal.Zero
	for i := range rows {
		row := &rows[i]
		if !row.OnholdCP.IsPositive() && !row.IsLocked {
			continue
		}
		total = total.Add(row.OnholdCP)
		row.AvailableCP = row.AvailableCP.Add(row.OnholdCP)
		row.OnholdCP = decimal.Zero
		row.IsLocked = false
		if err := tx.Ledger.SaveCommunityPoint(ctx, row); err != nil {
			return decimal.Zero, 0, fmt.Errorf("save community point %d/%d: %w", row.MemberID, row.Level, err)
		}
	}
	w.Release(total)

	n, err := tx.Ledger.ReleaseTransactions(ctx, w.MemberID, from, to, g.clock.Now())
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("release legs of %d: %w", w.MemberID, err)
	}
	return total, n, nil
}
