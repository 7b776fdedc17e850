package engine

import (
	"context"
	"fmt"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Split divides an event pool by percent: personal, referral, community and reserve.
type Split struct {
	PP decimal.Decimal `json:"pp"`
	RP decimal.Decimal `json:"rp"`
	CP decimal.Decimal `json:"cp"`
	CR decimal.Decimal `json:"cr"`
}

// RegistrationSplit is fixed at 10/20/50/20.
func RegistrationSplit() Split {
	return Split{
		PP: decimal.NewFromInt(10),
		RP: decimal.NewFromInt(20),
		CP: decimal.NewFromInt(50),
		CR: decimal.NewFromInt(20),
	}
}

func (s Split) Validate() error {
	for _, p := range []decimal.Decimal{s.PP, s.RP, s.CP, s.CR} {
		if p.IsNegative() {
			return domain.ErrInvalidSplit
		}
	}
	if !s.PP.Add(s.RP).Add(s.CP).Add(s.CR).Equal(hundred) {
		return domain.ErrInvalidSplit
	}
	return nil
}

// Event is one qualifying business event: a registration or an approved purchase.
type Event struct {
	EventID         string
	Reason          domain.Reason
	SubjectMemberID uint // the new member or the purchaser
	PurchaseID      *uint
	Pool            decimal.Decimal
	Split           Split
	Reference       string
}

type Settlement struct {
	EventID     string
	Reason      domain.Reason
	PP          decimal.Decimal
	RP          decimal.Decimal
	CR          decimal.Decimal
	Unallocated decimal.Decimal
	SponsorID   uint
	CP          *DistributionResult
	Notices     []Notice
}

// Settle splits ev.Pool: PP to the subject, RP to the direct sponsor, the CP share through
// the upline walk, the remainder to the company reserve. Points with no receiver go to the
// reserve's unallocated balance, so PP+RP+CP+CR+unallocated always equals the pool.
// The reserve row is locked last.
func (o *Orchestrator) Settle(ctx context.Context, tx Tx, ev Event) (*Settlement, error) {
	if !ev.Pool.IsPositive() {
		return nil, domain.ErrInvalidPool
	}
	if err := ev.Split.Validate(); err != nil {
		return nil, err
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	st := &Settlement{EventID: ev.EventID, Reason: ev.Reason, Unallocated: decimal.Zero}
	ppShare := round2(ev.Pool.Mul(ev.Split.PP).Div(hundred))
	rpShare := round2(ev.Pool.Mul(ev.Split.RP).Div(hundred))
	cpShare := round2(ev.Pool.Mul(ev.Split.CP).Div(hundred))
	crShare := ev.Pool.Sub(ppShare).Sub(rpShare).Sub(cpShare)

	paid, err := o.creditPoints(ctx, tx, ev, ev.SubjectMemberID, ppShare, domain.PointPersonal)
	if err != nil {
		return nil, err
	}
	if paid {
		st.PP = ppShare
		if ppShare.IsPositive() {
			st.Notices = append(st.Notices, pointsNotice(ev, ev.SubjectMemberID, ppShare, "personal"))
		}
	} else {
		st.PP = decimal.Zero
		st.Unallocated = st.Unallocated.Add(ppShare)
	}

	sponsor, hasSponsor, err := tx.Edges.ParentOf(ctx, ev.SubjectMemberID)
	if err != nil {
		return nil, fmt.Errorf("resolve sponsor of %d: %w", ev.SubjectMemberID, err)
	}
	st.RP = decimal.Zero
	if hasSponsor {
		st.SponsorID = sponsor
		paid, err = o.creditPoints(ctx, tx, ev, sponsor, rpShare, domain.PointReferral)
		if err != nil {
			return nil, err
		}
		if paid && rpShare.IsPositive() {
			st.RP = rpShare
			st.Notices = append(st.Notices, pointsNotice(ev, sponsor, rpShare, "referral"))
		}
	}
	if st.RP.IsZero() {
		st.Unallocated = st.Unallocated.Add(rpShare)
	}

	st.CP, err = o.Distribute(ctx, tx, Trigger{
		EventID:         ev.EventID,
		Reason:          ev.Reason,
		SourceMemberID:  ev.SubjectMemberID,
		TriggerMemberID: ev.SubjectMemberID,
		Pool:            cpShare,
		Headroom:        crShare,
		PurchaseID:      ev.PurchaseID,
	})
	if err != nil {
		return nil, err
	}
	st.Notices = append(st.Notices, st.CP.Notices...)

	// Rounding can overshoot the CP share by a few cents; the reserve absorbs it, and the
	// walk is capped at the reserve share so CR never goes negative.
	st.CR = crShare
	if st.CP.Undistributed.IsPositive() {
		st.Unallocated = st.Unallocated.Add(st.CP.Undistributed)
	} else {
		st.CR = st.CR.Add(st.CP.Undistributed)
	}

	if err := o.creditReserve(ctx, tx, ev, st); err != nil {
		return nil, err
	}
	return st, nil
}

// creditPoints pays a PP or RP share into a wallet. It reports false when the wallet is missing.
func (o *Orchestrator) creditPoints(ctx context.Context, tx Tx, ev Event, memberID uint, amount decimal.Decimal, kind domain.PointKind) (bool, error) {
	if !amount.IsPositive() {
		return true, nil
	}
	w, err := tx.Wallets.LockByMemberID(ctx, memberID)
	if domain.IsMissingWallet(err) {
		o.log.Warn("settlement: no wallet, share goes to reserve",
			"event_id", ev.EventID, "member_id", memberID, "kind", kind)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock wallet of %d: %w", memberID, err)
	}
	switch kind {
	case domain.PointPersonal:
		w.TotalPP = w.TotalPP.Add(amount)
	case domain.PointReferral:
		w.TotalRP = w.TotalRP.Add(amount)
	case domain.PointReserve, domain.PointUnallocated:
		return false, fmt.Errorf("kind %s is not a member credit", kind)
	}
	w.TotalPoints = w.TotalPoints.Add(amount)
	w.AvailablePoints = w.AvailablePoints.Add(amount)
	if err := tx.Wallets.Save(ctx, w); err != nil {
		return false, fmt.Errorf("save wallet of %d: %w", memberID, err)
	}
	id := memberID
	err = tx.Points.Create(ctx, &models.PointTransaction{
		EventID:   ev.EventID,
		MemberID:  &id,
		Kind:      kind,
		Amount:    amount,
		Reference: ev.Reference,
	})
	if err != nil {
		return false, fmt.Errorf("record %s points: %w", kind, err)
	}
	return true, nil
}

func (o *Orchestrator) creditReserve(ctx context.Context, tx Tx, ev Event, st *Settlement) error {
	cr, err := tx.Reserve.Lock(ctx)
	if err != nil {
		return fmt.Errorf("lock company reserve: %w", err)
	}
	cr.TotalReserve = cr.TotalReserve.Add(st.CR)
	cr.UnallocatedPoints = cr.UnallocatedPoints.Add(st.Unallocated)
	if err := tx.Reserve.Save(ctx, cr); err != nil {
		return fmt.Errorf("save company reserve: %w", err)
	}

	for _, p := range []struct {
		kind   domain.PointKind
		amount decimal.Decimal
	}{
		{domain.PointReserve, st.CR},
		{domain.PointUnallocated, st.Unallocated},
	} {
		if p.amount.IsZero() {
			continue
		}
		err := tx.Points.Create(ctx, &models.PointTransaction{
			EventID:   ev.EventID,
			Kind:      p.kind,
			Amount:    p.amount,
			Reference: ev.Reference,
		})
		if err != nil {
			return fmt.Errorf("record %s points: %w", p.kind, err)
		}
	}
	return nil
}

func pointsNotice(ev Event, memberID uint, amount decimal.Decimal, kind string) Notice {
	return Notice{
		MemberID: memberID,
		Type:     domain.NotifyPointsEarned,
		Title:    "Points earned",
		Body:     fmt.Sprintf("You earned %s %s points.", amount.StringFixed(2), kind),
		Data: map[string]any{
			"event_id": ev.EventID,
			"reason":   string(ev.Reason),
			"kind":     kind,
			"amount":   amount.StringFixed(2),
		},
	}
}
