package engine

import (
	"context"
	"testing"

	"loyalty/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSplit_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, RegistrationSplit().Validate())

	bad := RegistrationSplit()
	bad.CR = decimal.NewFromInt(25)
	require.ErrorIs(t, bad.Validate(), domain.ErrInvalidSplit)

	neg := Split{PP: decimal.NewFromInt(-10), RP: decimal.NewFromInt(40), CP: decimal.NewFromInt(50), CR: decimal.NewFromInt(20)}
	require.ErrorIs(t, neg.Validate(), domain.ErrInvalidSplit)
}

func TestSettle_RegistrationConservesPool(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(chainIDs(31)...) // member 1 registers under a full 30-level upline
	o := newTestOrchestrator(t, s)

	st, err := o.Settle(context.Background(), s.tx(), Event{
		Reason:          domain.ReasonRegistration,
		SubjectMemberID: 1,
		Pool:            decimal.NewFromInt(100),
		Split:           RegistrationSplit(),
		Reference:       "registration_1",
	})
	require.NoError(t, err)

	require.Equal(t, "10.00", st.PP.StringFixed(2))
	require.Equal(t, "20.00", st.RP.StringFixed(2))
	require.Equal(t, uint(2), st.SponsorID)
	require.Len(t, st.CP.Legs, domain.MaxLevels)

	legSum := decimal.Zero
	for _, leg := range s.legs {
		require.Equal(t, st.EventID, leg.EventID)
		legSum = legSum.Add(leg.CPAmount)
	}
	require.InDelta(t, 50.0, legSum.InexactFloat64(), 0.01*domain.MaxLevels)

	total := st.PP.Add(st.RP).Add(legSum).Add(st.CR).Add(st.Unallocated)
	require.Equal(t, "100.00", total.StringFixed(2))
	require.True(t, s.reserve.TotalReserve.Equal(st.CR))

	subject := s.wallet(1)
	require.Equal(t, "10.00", subject.TotalPP.StringFixed(2))
	require.Equal(t, "10.00", subject.AvailablePoints.StringFixed(2))

	sponsor := s.wallet(2)
	require.Equal(t, "20.00", sponsor.TotalRP.StringFixed(2))
	require.Equal(t, "5.00", sponsor.TotalCP.StringFixed(2))
	require.Equal(t, "25.00", sponsor.TotalPoints.StringFixed(2))

	// Every level-1 distribution credits the sponsor's PP/RP/CP as available.
	require.Equal(t, "25.00", sponsor.AvailablePoints.StringFixed(2))

	for id, w := range s.wallets {
		require.True(t, w.AvailablePoints.Add(w.OnholdPoints).LessThanOrEqual(w.TotalPoints), "member %d", id)
	}
	for k, row := range s.points {
		require.True(t, row.TotalCP.Equal(row.AvailableCP.Add(row.OnholdCP)), "row %v", k)
	}
}

func TestSettle_RootMemberSendsSharesToReserve(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(1)
	o := newTestOrchestrator(t, s)

	st, err := o.Settle(context.Background(), s.tx(), Event{
		Reason:          domain.ReasonRegistration,
		SubjectMemberID: 1,
		Pool:            decimal.NewFromInt(100),
		Split:           RegistrationSplit(),
	})
	require.NoError(t, err)
	require.True(t, st.RP.IsZero())
	require.Empty(t, st.CP.Legs)
	require.Equal(t, "70.00", st.Unallocated.StringFixed(2)) // 20 RP + 50 CP
	require.Equal(t, "20.00", st.CR.StringFixed(2))
	require.Equal(t, "70.00", s.reserve.UnallocatedPoints.StringFixed(2))

	kinds := map[domain.PointKind]string{}
	for _, c := range s.credits {
		kinds[c.Kind] = c.Amount.StringFixed(2)
	}
	require.Equal(t, map[domain.PointKind]string{
		domain.PointPersonal:    "10.00",
		domain.PointReserve:     "20.00",
		domain.PointUnallocated: "70.00",
	}, kinds)
}

func TestSettle_RejectsBadInput(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(1)
	o := newTestOrchestrator(t, s)

	_, err := o.Settle(context.Background(), s.tx(), Event{SubjectMemberID: 1, Pool: decimal.Zero, Split: RegistrationSplit()})
	require.ErrorIs(t, err, domain.ErrInvalidPool)

	_, err = o.Settle(context.Background(), s.tx(), Event{SubjectMemberID: 1, Pool: decimal.NewFromInt(10), Split: Split{}})
	require.ErrorIs(t, err, domain.ErrInvalidSplit)
}

func TestSettle_ZeroReserveSplitCapsRounding(t *testing.T) {
	t.Parallel()

	s := newMemStore()
	s.chain(chainIDs(31)...)
	o := newTestOrchestrator(t, s)

	// 1.45% of 70 is 1.015, so levels 21-30 round up and the walk would pay 70.05.
	st, err := o.Settle(context.Background(), s.tx(), Event{
		Reason:          domain.ReasonPurchase,
		SubjectMemberID: 1,
		Pool:            decimal.NewFromInt(100),
		Split:           Split{PP: decimal.NewFromInt(10), RP: decimal.NewFromInt(20), CP: decimal.NewFromInt(70), CR: decimal.Zero},
	})
	require.NoError(t, err)
	require.Len(t, st.CP.Legs, domain.MaxLevels)
	require.Equal(t, "70.00", st.CP.Distributed.StringFixed(2))
	require.True(t, st.CR.IsZero())
	require.True(t, st.Unallocated.IsZero())

	last := s.legsFor(31)
	require.Len(t, last, 1)
	require.Equal(t, "0.97", last[0].CPAmount.StringFixed(2))

	for _, c := range s.credits {
		require.False(t, c.Amount.IsNegative(), "%s credit %s", c.Kind, c.Amount)
		require.NotEqual(t, domain.PointReserve, c.Kind)
	}
	require.True(t, s.reserve.TotalReserve.IsZero())
}
