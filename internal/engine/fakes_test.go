package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/shopspring/decimal"
)

type cpKey struct {
	member uint
	level  int
}

// memStore is an in-memory Tx backend. Reads return copies, like rows read from a database.
type memStore struct {
	mu      sync.Mutex
	parents map[uint]uint
	wallets map[uint]models.MemberWallet
	points  map[cpKey]models.MemberCommunityPoint
	legs    []models.CpTransaction
	history []models.CpUnlockHistory
	credits []models.PointTransaction
	reserve models.CompanyReserve
	nextLeg uint
	alerts  []error
	// lockedCounts is how many referral counts were taken as locking reads.
	lockedCounts int
}

func newMemStore() *memStore {
	return &memStore{
		parents: map[uint]uint{},
		wallets: map[uint]models.MemberWallet{},
		points:  map[cpKey]models.MemberCommunityPoint{},
		reserve: models.CompanyReserve{ID: domain.CompanyReserveID, TotalReserve: decimal.Zero, UnallocatedPoints: decimal.Zero},
	}
}

func (s *memStore) tx() Tx {
	return Tx{
		Edges:   memEdges{s},
		Wallets: memWallets{s},
		Ledger:  memLedger{s},
		Unlocks: memUnlocks{s},
		Points:  memPoints{s},
		Reserve: memReserve{s},
	}
}

// chain links ids so that ids[i+1] sponsors ids[i], and opens a base wallet for each.
func (s *memStore) chain(ids ...uint) {
	for i, id := range ids {
		s.openWallet(id)
		if i+1 < len(ids) {
			s.parents[id] = ids[i+1]
		}
	}
}

func (s *memStore) openWallet(id uint) {
	s.wallets[id] = models.MemberWallet{
		MemberID:        id,
		UnlockedLevel:   domain.BaseUnlockedLevel,
		OnholdPoints:    decimal.Zero,
		AvailablePoints: decimal.Zero,
		TotalPoints:     decimal.Zero,
		TotalRP:         decimal.Zero,
		TotalPP:         decimal.Zero,
		TotalCP:         decimal.Zero,
	}
}

func (s *memStore) wallet(id uint) models.MemberWallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[id]
}

func (s *memStore) legsFor(member uint) []models.CpTransaction {
	var out []models.CpTransaction
	for _, l := range s.legs {
		if l.ReceiverMemberID == member {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) Alert(_ context.Context, err error) {
	s.alerts = append(s.alerts, err)
}

type memEdges struct{ s *memStore }

func (e memEdges) ParentOf(_ context.Context, child uint) (uint, bool, error) {
	p, ok := e.s.parents[child]
	return p, ok, nil
}

func (e memEdges) CountDirectReferrals(_ context.Context, parent uint) (int64, error) {
	var n int64
	for _, p := range e.s.parents {
		if p == parent {
			n++
		}
	}
	return n, nil
}

func (e memEdges) LockCountDirectReferrals(ctx context.Context, parent uint) (int64, error) {
	e.s.mu.Lock()
	e.s.lockedCounts++
	e.s.mu.Unlock()
	return e.CountDirectReferrals(ctx, parent)
}

type memWallets struct{ s *memStore }

func (w memWallets) LockByMemberID(_ context.Context, id uint) (*models.MemberWallet, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	row, ok := w.s.wallets[id]
	if !ok {
		return nil, &domain.MissingWalletError{MemberID: id}
	}
	return &row, nil
}

func (w memWallets) Save(_ context.Context, row *models.MemberWallet) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.wallets[row.MemberID] = *row
	return nil
}

type memLedger struct{ s *memStore }

func (l memLedger) LockCommunityPoint(_ context.Context, member uint, level int) (*models.MemberCommunityPoint, error) {
	row, ok := l.s.points[cpKey{member, level}]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (l memLedger) LockCommunityPointsInRange(_ context.Context, member uint, from, to int) ([]models.MemberCommunityPoint, error) {
	var rows []models.MemberCommunityPoint
	for k, row := range l.s.points {
		if k.member == member && k.level >= from && k.level <= to {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Level < rows[j].Level })
	return rows, nil
}

func (l memLedger) CreateCommunityPoint(_ context.Context, row *models.MemberCommunityPoint) error {
	l.s.points[cpKey{row.MemberID, row.Level}] = *row
	return nil
}

func (l memLedger) SaveCommunityPoint(_ context.Context, row *models.MemberCommunityPoint) error {
	l.s.points[cpKey{row.MemberID, row.Level}] = *row
	return nil
}

func (l memLedger) CreateTransaction(_ context.Context, tx *models.CpTransaction) error {
	l.s.nextLeg++
	tx.ID = l.s.nextLeg
	l.s.legs = append(l.s.legs, *tx)
	return nil
}

func (l memLedger) ReleaseTransactions(_ context.Context, member uint, from, to int, at time.Time) (int64, error) {
	var n int64
	for i := range l.s.legs {
		leg := &l.s.legs[i]
		if leg.ReceiverMemberID == member && leg.Level >= from && leg.Level <= to && leg.Status == domain.StatusOnHold {
			leg.Status = domain.StatusReleased
			leg.TransactionType = domain.TxUnlocked
			ts := at
			leg.ReleasedAt = &ts
			n++
		}
	}
	return n, nil
}

type memUnlocks struct{ s *memStore }

func (u memUnlocks) Create(_ context.Context, h *models.CpUnlockHistory) error {
	u.s.history = append(u.s.history, *h)
	return nil
}

type memPoints struct{ s *memStore }

func (p memPoints) Create(_ context.Context, t *models.PointTransaction) error {
	p.s.credits = append(p.s.credits, *t)
	return nil
}

type memReserve struct{ s *memStore }

func (r memReserve) Lock(context.Context) (*models.CompanyReserve, error) {
	cr := r.s.reserve
	return &cr, nil
}

func (r memReserve) Save(_ context.Context, cr *models.CompanyReserve) error {
	r.s.reserve = *cr
	return nil
}
