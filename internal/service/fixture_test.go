package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/dbtest"
	"loyalty/internal/engine"
	"loyalty/internal/logger"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/txn"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seedSeq atomic.Int64
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []engine.Notice
}

func (n *recordingNotifier) Dispatch(_ context.Context, notices []engine.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notices...)
}

func (n *recordingNotifier) ofType(typ string) []engine.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []engine.Notice
	for _, x := range n.notices {
		if x.Type == typ {
			out = append(out, x)
		}
	}
	return out
}

type recordingAlerter struct {
	mu   sync.Mutex
	errs []error
}

func (a *recordingAlerter) Alert(_ context.Context, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
}

type fixture struct {
	store        *repository.Store
	runner       *txn.Runner
	levels       *LevelConfigService
	gate         *engine.Gate
	registration *RegistrationService
	purchases    *PurchaseService
	splits       *SplitSettings
	sweeper      *ReleaseSweeper
	notifier     *recordingNotifier
	alerter      *recordingAlerter
	clock        *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewQuiet()
	clock := clockwork.NewFakeClockAt(testNow)

	db := dbtest.New(t)
	store := repository.NewStore(db)
	runner := txn.NewRunner(db, txn.DefaultConfig(), log)

	levels := NewLevelConfigService(store, runner, log)
	registry, err := levels.Load(ctx)
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		runner:   runner,
		levels:   levels,
		notifier: &recordingNotifier{},
		alerter:  &recordingAlerter{},
		clock:    clock,
	}
	orch := engine.NewOrchestrator(registry, clock, f.alerter, log)
	f.gate = engine.NewGate(clock, log)
	f.registration = NewRegistrationService(runner, orch, f.gate, f.notifier, decimal.NewFromInt(100), log)
	f.splits = NewSplitSettings(store, runner, config.SplitConfig{
		PP: decimal.NewFromInt(10),
		RP: decimal.NewFromInt(20),
		CP: decimal.NewFromInt(50),
		CR: decimal.NewFromInt(20),
	})
	f.purchases = NewPurchaseService(store, runner, orch, f.splits, f.notifier, decimal.RequireFromString("0.10"), clock, log)
	f.sweeper = NewReleaseSweeper(store, runner, f.gate, levels, f.notifier, SweeperConfig{
		Interval:    time.Hour,
		Concurrency: 4,
		Clock:       clock,
	}, log)
	return f
}

// seedMember writes a member, a base wallet and an optional sponsor edge without
// running the gate, so ancestors keep unlocked level 5.
func (f *fixture) seedMember(t *testing.T, sponsorID uint, withWallet bool) uint {
	t.Helper()
	ctx := context.Background()
	m := &models.Member{Name: "seed", Email: fmt.Sprintf("seed-%d@example.com", seedSeq.Add(1)), Role: "MEMBER"}
	require.NoError(t, f.store.Members.Create(ctx, m))
	if withWallet {
		_, err := f.store.Wallets.Create(ctx, m.ID)
		require.NoError(t, err)
	}
	if sponsorID != 0 {
		require.NoError(t, f.store.Referrals.CreateEdge(ctx, &models.ReferralEdge{ParentMemberID: sponsorID, ChildMemberID: m.ID}))
	}
	return m.ID
}

// seedChain builds n members hanging below top, returned top-down.
func (f *fixture) seedChain(t *testing.T, top uint, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	parent := top
	for i := 0; i < n; i++ {
		parent = f.seedMember(t, parent, true)
		ids = append(ids, parent)
	}
	return ids
}

func (f *fixture) codeOf(t *testing.T, memberID uint) string {
	t.Helper()
	rc, err := f.store.Referrals.GetOrCreateCode(context.Background(), memberID)
	require.NoError(t, err)
	return rc.Code
}

func (f *fixture) register(t *testing.T, email string, sponsorID uint) *Registration {
	t.Helper()
	in := RegisterInput{Name: "Member " + email, Email: email}
	if sponsorID != 0 {
		in.ReferralCode = f.codeOf(t, sponsorID)
	}
	reg, err := f.registration.Register(context.Background(), in)
	require.NoError(t, err)
	return reg
}

func (f *fixture) wallet(t *testing.T, memberID uint) *models.MemberWallet {
	t.Helper()
	w, err := f.store.Wallets.GetByMemberID(context.Background(), memberID)
	require.NoError(t, err)
	return w
}

func (f *fixture) legs(t *testing.T, filter repository.CpTransactionFilter) []models.CpTransaction {
	t.Helper()
	list, _, err := f.store.Reports.ListCpTransactions(context.Background(), filter, 1, 100)
	require.NoError(t, err)
	return list
}

// eventTotal sums every credit written for one event: CP legs plus point transactions.
func (f *fixture) eventTotal(t *testing.T, eventID string) decimal.Decimal {
	t.Helper()
	ctx := context.Background()
	legs, err := f.store.Ledger.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	points, err := f.store.Points.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, l := range legs {
		total = total.Add(l.CPAmount)
	}
	for _, p := range points {
		total = total.Add(p.Amount)
	}
	return total
}
