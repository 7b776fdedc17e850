package engine

import (
	"context"
	"testing"

	"loyalty/internal/domain"
	"loyalty/internal/logger"
	"loyalty/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestUnlockedLevelFor(t *testing.T) {
	t.Parallel()

	for referrals, want := range map[int]int{0: 5, 1: 10, 2: 15, 3: 20, 4: 25, 5: 30, 12: 30} {
		require.Equal(t, want, UnlockedLevelFor(referrals), "referrals=%d", referrals)
	}
}

// seedHolds distributes one event from a bottom member so that member 8 holds
// level-7 CP, then gives member 8 extra holds at levels 12 and 20.
func seedHolds(t *testing.T, s *memStore, o *Orchestrator) {
	t.Helper()
	s.chain(chainIDs(8)...)
	_, err := o.Distribute(context.Background(), s.tx(), Trigger{
		Reason: domain.ReasonRegistration, SourceMemberID: 1, TriggerMemberID: 1, Pool: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	for _, e := range []Entry{
		{EventID: "e-12", Reason: domain.ReasonPurchase, SourceMemberID: 100, ReceiverMemberID: 8, Level: 12, Percentage: mustDecimal("1.50"), Amount: mustDecimal("0.75"), IsLocked: true},
		{EventID: "e-20", Reason: domain.ReasonPurchase, SourceMemberID: 101, ReceiverMemberID: 8, Level: 20, Percentage: mustDecimal("1.50"), Amount: mustDecimal("1.00"), IsLocked: true},
	} {
		_, err := o.ledger.RecordDistribution(context.Background(), memLedger{s}, e)
		require.NoError(t, err)
		w := s.wallets[8]
		w.CreditCP(e.Amount, true)
		s.wallets[8] = w
	}
}

func TestGate_UnlockReleasesNewlyUnlockedLevels(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	o := newTestOrchestrator(t, s)
	seedHolds(t, s, o)
	g := NewGate(clockwork.NewFakeClockAt(testNow), logger.NewQuiet())

	// Member 7 is already a direct referral; one more lifts member 8 to level 15.
	s.chain(200)
	s.parents[200] = 8

	res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 8)
	require.NoError(t, err)
	require.True(t, res.Unlocked)
	require.Equal(t, 5, res.PreviousLevel)
	require.Equal(t, 15, res.NewLevel)
	require.Equal(t, 0, res.PreviousReferrals)
	require.Equal(t, 2, res.NewReferrals)
	require.Equal(t, "4.75", res.Released.StringFixed(2))
	require.Equal(t, int64(2), res.ReleasedLegs)
	require.Len(t, res.Notices, 1)
	require.Equal(t, domain.NotifyLevelUnlock, res.Notices[0].Type)

	w := s.wallet(8)
	require.Equal(t, 15, w.UnlockedLevel)
	require.Equal(t, 2, w.TotalReferrals)
	require.Equal(t, "4.75", w.AvailablePoints.StringFixed(2))
	require.Equal(t, "1.00", w.OnholdPoints.StringFixed(2))

	require.Len(t, s.history, 1)
	h := s.history[0]
	require.Equal(t, models.CpUnlockHistory{
		MemberID:              8,
		PreviousReferrals:     0,
		NewReferrals:          2,
		PreviousUnlockedLevel: 5,
		NewUnlockedLevel:      15,
		ReleasedCPAmount:      h.ReleasedCPAmount,
	}, h)
	require.Equal(t, "4.75", h.ReleasedCPAmount.StringFixed(2))

	for _, leg := range s.legsFor(8) {
		switch leg.Level {
		case 7, 12:
			require.Equal(t, domain.StatusReleased, leg.Status)
			require.Equal(t, domain.TxUnlocked, leg.TransactionType)
			require.NotNil(t, leg.ReleasedAt)
			require.True(t, leg.ReleasedAt.Equal(testNow))
		case 20:
			require.Equal(t, domain.StatusOnHold, leg.Status)
			require.Nil(t, leg.ReleasedAt)
		}
	}

	lvl7 := s.points[cpKey{8, 7}]
	require.False(t, lvl7.IsLocked)
	require.True(t, lvl7.OnholdCP.IsZero())
	require.Equal(t, "4.00", lvl7.AvailableCP.StringFixed(2))
	require.True(t, s.points[cpKey{8, 20}].IsLocked)

	t.Run("second call is a no-op", func(t *testing.T) {
		before := s.wallet(8)
		res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 8)
		require.NoError(t, err)
		require.False(t, res.Unlocked)
		require.True(t, res.Released.IsZero())
		require.Empty(t, res.Notices)
		require.Len(t, s.history, 1)
		require.Equal(t, before, s.wallet(8))
	})
}

func TestGate_NeverLowersLevel(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(1)
	w := s.wallets[1]
	w.UnlockedLevel = 30
	w.TotalReferrals = 5
	s.wallets[1] = w
	g := NewGate(clockwork.NewFakeClockAt(testNow), logger.NewQuiet())

	res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.False(t, res.Unlocked)
	require.Equal(t, 30, s.wallet(1).UnlockedLevel)
	require.Equal(t, 0, s.wallet(1).TotalReferrals)
	require.Empty(t, s.history)
}

func TestGate_UnlockWithoutHoldsStillWritesHistory(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(2, 1)
	g := NewGate(clockwork.NewFakeClockAt(testNow), logger.NewQuiet())

	res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.True(t, res.Unlocked)
	require.Equal(t, 10, s.wallet(1).UnlockedLevel)
	require.Len(t, s.history, 1)
	require.True(t, s.history[0].ReleasedCPAmount.IsZero())
}

func TestGate_CountsReferralsWithLockingRead(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(2, 1)
	s.chain(3)
	s.parents[3] = 1
	g := NewGate(clockwork.NewFakeClockAt(testNow), logger.NewQuiet())

	res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, res.NewReferrals)
	require.Equal(t, 1, s.lockedCounts)

	_, err = g.Reconcile(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, s.lockedCounts)
}

func TestGate_ReconcileReleasesStrandedHolds(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(1)
	w := s.wallets[1]
	w.UnlockedLevel = 10
	s.wallets[1] = w
	g := NewGate(clockwork.NewFakeClockAt(testNow), logger.NewQuiet())
	o := newTestOrchestrator(t, s)

	// A hold recorded at level 6 while the member was still at level 5.
	_, err := o.ledger.RecordDistribution(context.Background(), memLedger{s}, Entry{
		EventID: "e-6", Reason: domain.ReasonPurchase, SourceMemberID: 50, ReceiverMemberID: 1,
		Level: 6, Percentage: mustDecimal("5.00"), Amount: mustDecimal("2.50"), IsLocked: true,
	})
	require.NoError(t, err)
	w = s.wallets[1]
	w.CreditCP(mustDecimal("2.50"), true)
	s.wallets[1] = w

	res, err := g.OnReferralCountChanged(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.True(t, res.Released.IsZero())

	res, err = g.Reconcile(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.False(t, res.Unlocked)
	require.Equal(t, "2.50", res.Released.StringFixed(2))
	require.Equal(t, "2.50", s.wallet(1).AvailablePoints.StringFixed(2))
	require.True(t, s.wallet(1).OnholdPoints.IsZero())
	require.Len(t, s.history, 1)
	require.Equal(t, 10, s.history[0].NewUnlockedLevel)

	res, err = g.Reconcile(context.Background(), s.tx(), 1)
	require.NoError(t, err)
	require.True(t, res.Released.IsZero())
	require.Len(t, s.history, 1)
}
