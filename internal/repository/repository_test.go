package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"loyalty/internal/dbtest"
	"loyalty/internal/domain"
	"loyalty/internal/models"
	"loyalty/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMember(t *testing.T, s *repository.Store, email string) uint {
	t.Helper()
	ctx := context.Background()
	m := &models.Member{Name: "Member", Email: email, Role: domain.RoleMember}
	require.NoError(t, s.Members.Create(ctx, m))
	_, err := s.Wallets.Create(ctx, m.ID)
	require.NoError(t, err)
	return m.ID
}

func leg(event string, receiver uint, level int, amount string, status domain.TransactionStatus) *models.CpTransaction {
	return &models.CpTransaction{
		EventID:          event,
		Reason:           domain.ReasonRegistration,
		SourceMemberID:   999,
		ReceiverMemberID: receiver,
		Level:            level,
		CPPercentage:     decimal.NewFromInt(10),
		CPAmount:         decimal.RequireFromString(amount),
		IsLocked:         status == domain.StatusOnHold,
		Status:           status,
		TransactionType:  domain.TxEarned,
	}
}

func TestMembers_EmailTakenAndRole(t *testing.T) {
	s := repository.NewStore(dbtest.New(t))
	ctx := context.Background()
	id := newMember(t, s, "a@example.com")

	err := s.Members.Create(ctx, &models.Member{Name: "Other", Email: "a@example.com"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	require.NoError(t, s.Members.UpdateRole(ctx, id, domain.RoleAdmin))
	m, err := s.Members.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, m.IsAdmin())

	require.ErrorIs(t, s.Members.UpdateRole(ctx, 4242, domain.RoleAdmin), domain.ErrMemberNotFound)
}

func TestReferrals_CodesAndEdges(t *testing.T) {
	s := repository.NewStore(dbtest.New(t))
	ctx := context.Background()
	parent := newMember(t, s, "p@example.com")
	child := newMember(t, s, "c@example.com")

	rc, err := s.Referrals.GetOrCreateCode(ctx, parent)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), rc.Code)
	again, err := s.Referrals.GetOrCreateCode(ctx, parent)
	require.NoError(t, err)
	require.Equal(t, rc.Code, again.Code)

	found, err := s.Referrals.GetByCode(ctx, rc.Code)
	require.NoError(t, err)
	require.Equal(t, parent, found.MemberID)
	_, err = s.Referrals.GetByCode(ctx, "not-a-code")
	require.ErrorIs(t, err, domain.ErrInvalidReferralCode)

	require.NoError(t, s.Referrals.CreateEdge(ctx, &models.ReferralEdge{ParentMemberID: parent, ChildMemberID: child}))
	got, ok, err := s.Referrals.ParentOf(ctx, child)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, parent, got)
	_, ok, err = s.Referrals.ParentOf(ctx, parent)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.Referrals.CountDirectReferrals(ctx, parent)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	n, err = s.Referrals.LockCountDirectReferrals(ctx, parent)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestWallets_StaleReferralCount(t *testing.T) {
	s := repository.NewStore(dbtest.New(t))
	ctx := context.Background()
	parent := newMember(t, s, "p@example.com")
	child := newMember(t, s, "c@example.com")
	require.NoError(t, s.Referrals.CreateEdge(ctx, &models.ReferralEdge{ParentMemberID: parent, ChildMemberID: child}))

	ids, err := s.Wallets.MembersWithStaleReferralCount(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{parent}, ids)

	w, err := s.Wallets.GetByMemberID(ctx, parent)
	require.NoError(t, err)
	require.Equal(t, domain.BaseUnlockedLevel, w.UnlockedLevel)
	w.TotalReferrals = 1
	require.NoError(t, s.Wallets.Save(ctx, w))

	ids, err = s.Wallets.MembersWithStaleReferralCount(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestLedger_ReleaseAndStrandedHolds(t *testing.T) {
	s := repository.NewStore(dbtest.New(t))
	ctx := context.Background()
	m := newMember(t, s, "m@example.com")
	event := uuid.NewString()

	for _, l := range []*models.CpTransaction{
		leg(event, m, 3, "1.50", domain.StatusAvailable),
		leg(event, m, 6, "2.00", domain.StatusOnHold),
		leg(event, m, 12, "4.00", domain.StatusOnHold),
	} {
		require.NoError(t, s.Ledger.CreateTransaction(ctx, l))
	}
	require.NoError(t, s.Ledger.CreateCommunityPoint(ctx, &models.MemberCommunityPoint{
		MemberID: m, Level: 4, TotalCP: decimal.NewFromInt(2), OnholdCP: decimal.NewFromInt(2), IsLocked: true,
	}))

	// Level 4 is within the starting ceiling of 5, so its hold is stranded.
	ids, err := s.Ledger.MembersWithStrandedHolds(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{m}, ids)

	n, err := s.Ledger.ReleaseTransactions(ctx, m, 6, 10, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	legs, err := s.Ledger.ListByEvent(ctx, event)
	require.NoError(t, err)
	require.Len(t, legs, 3)
	require.Equal(t, domain.StatusAvailable, legs[0].Status)
	require.Equal(t, domain.StatusReleased, legs[1].Status)
	require.Equal(t, domain.TxUnlocked, legs[1].TransactionType)
	require.NotNil(t, legs[1].ReleasedAt)
	require.Equal(t, domain.StatusOnHold, legs[2].Status)
}

func TestReports_CpTotalsByStatus(t *testing.T) {
	s := repository.NewStore(dbtest.New(t))
	ctx := context.Background()
	a := newMember(t, s, "a@example.com")
	b := newMember(t, s, "b@example.com")
	event := uuid.NewString()

	for _, l := range []*models.CpTransaction{
		leg(event, a, 1, "1.50", domain.StatusAvailable),
		leg(event, a, 2, "2.00", domain.StatusAvailable),
		leg(event, a, 7, "4.00", domain.StatusOnHold),
		leg(event, b, 1, "5.00", domain.StatusAvailable),
	} {
		require.NoError(t, s.Ledger.CreateTransaction(ctx, l))
	}

	totals, err := s.Reports.CpTotalsByStatus(ctx, repository.CpTransactionFilter{ReceiverID: a})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, domain.StatusAvailable, totals[0].Status)
	require.EqualValues(t, 2, totals[0].Count)
	require.Equal(t, "3.50", totals[0].Amount.StringFixed(2))
	require.Equal(t, domain.StatusOnHold, totals[1].Status)
	require.Equal(t, "4.00", totals[1].Amount.StringFixed(2))

	list, total, err := s.Reports.ListCpTransactions(ctx, repository.CpTransactionFilter{Level: 1}, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, list, 2)

	_, total, err = s.Reports.ListCpTransactions(ctx, repository.CpTransactionFilter{Status: domain.StatusOnHold, EventID: event}, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	stats, err := s.Reports.GetDashboardStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalMembers)
}
