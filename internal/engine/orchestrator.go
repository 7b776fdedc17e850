package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loyalty/internal/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// Trigger is the input of one CP distribution.
type Trigger struct {
	EventID         string
	Reason          domain.Reason
	SourceMemberID  uint // anchor of the upline walk
	TriggerMemberID uint // never paid through the walk
	Pool            decimal.Decimal
	Headroom        decimal.Decimal // what per-level rounding may pay beyond Pool
	PurchaseID      *uint
}

type Leg struct {
	ReceiverMemberID uint
	Level            int
	Percentage       decimal.Decimal
	Amount           decimal.Decimal
	Status           domain.TransactionStatus
}

// Skip records a level that paid nothing.
type Skip struct {
	MemberID uint
	Level    int
	Reason   string
}

const (
	skipSelf          = "self"
	skipZeroAmount    = "zero_amount"
	skipMissingWallet = "missing_wallet"
)

type DistributionResult struct {
	EventID       string
	Legs          []Leg
	Skips         []Skip
	Distributed   decimal.Decimal
	Undistributed decimal.Decimal // pool minus Distributed; negative when rounding overshoots
	Notices       []Notice
}

// Orchestrator walks the upline and pays each level of a CP pool.
type Orchestrator struct {
	levels    *LevelRegistry
	ledger    *Ledger
	alerter   Alerter
	log       *slog.Logger
	maxLevels int
}

func NewOrchestrator(levels *LevelRegistry, clock clockwork.Clock, alerter Alerter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		levels:    levels,
		ledger:    NewLedger(clock),
		alerter:   alerter,
		log:       log,
		maxLevels: domain.MaxLevels,
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Distribute pays pool across the upline of t.SourceMemberID. Every wallet and balance it
// touches is locked through tx; levels with no wallet are logged and skipped. The walk never
// pays more than Pool+Headroom: a leg that would cross it is cut to what is left.
func (o *Orchestrator) Distribute(ctx context.Context, tx Tx, t Trigger) (*DistributionResult, error) {
	if t.Pool.IsNegative() {
		return nil, domain.ErrInvalidPool
	}
	if t.EventID == "" {
		t.EventID = uuid.NewString()
	}
	table := o.levels.Current()
	if table == nil {
		return nil, &domain.ConfigIntegrityError{Reason: "no level configuration loaded"}
	}

	path, err := UplinePath(ctx, tx.Edges, t.SourceMemberID, o.maxLevels)
	if err != nil {
		var gerr *domain.GraphIntegrityError
		if errors.As(err, &gerr) && o.alerter != nil {
			o.alerter.Alert(ctx, err)
		}
		return nil, err
	}

	if t.Headroom.IsNegative() {
		t.Headroom = decimal.Zero
	}
	limit := t.Pool.Add(t.Headroom)

	res := &DistributionResult{EventID: t.EventID, Distributed: decimal.Zero}
	for _, hop := range path {
		if hop.MemberID == t.TriggerMemberID {
			res.skip(hop, skipSelf)
			continue
		}
		pct := table.PercentageForLevel(hop.Level)
		amount := round2(t.Pool.Mul(pct).Div(hundred))
		if rest := limit.Sub(res.Distributed); amount.GreaterThan(rest) {
			amount = rest
		}
		if !amount.IsPositive() {
			res.skip(hop, skipZeroAmount)
			continue
		}

		w, err := tx.Wallets.LockByMemberID(ctx, hop.MemberID)
		if domain.IsMissingWallet(err) {
			o.log.Warn("distribution: level skipped, receiver has no wallet",
				"event_id", t.EventID, "member_id", hop.MemberID, "level", hop.Level)
			res.skip(hop, skipMissingWallet)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock wallet of %d: %w", hop.MemberID, err)
		}

		locked := hop.Level > w.UnlockedLevel
		_, err = o.ledger.RecordDistribution(ctx, tx.Ledger, Entry{
			EventID:          t.EventID,
			Reason:           t.Reason,
			PurchaseID:       t.PurchaseID,
			SourceMemberID:   t.SourceMemberID,
			ReceiverMemberID: hop.MemberID,
			Level:            hop.Level,
			Percentage:       pct,
			Amount:           amount,
			IsLocked:         locked,
		})
		if err != nil {
			return nil, err
		}
		w.CreditCP(amount, locked)
		if err := tx.Wallets.Save(ctx, w); err != nil {
			return nil, fmt.Errorf("save wallet of %d: %w", hop.MemberID, err)
		}

		status := domain.StatusFor(locked)
		res.Legs = append(res.Legs, Leg{
			ReceiverMemberID: hop.MemberID,
			Level:            hop.Level,
			Percentage:       pct,
			Amount:           amount,
			Status:           status,
		})
		res.Distributed = res.Distributed.Add(amount)
		res.Notices = append(res.Notices, cpNotice(t, hop, amount, status))
	}
	res.Undistributed = t.Pool.Sub(res.Distributed)

	o.log.Debug("distribution: done",
		"event_id", t.EventID,
		"reason", t.Reason,
		"source", t.SourceMemberID,
		"legs", len(res.Legs),
		"skips", len(res.Skips),
		"distributed", res.Distributed.StringFixed(2))
	return res, nil
}

func (r *DistributionResult) skip(hop Hop, reason string) {
	r.Skips = append(r.Skips, Skip{MemberID: hop.MemberID, Level: hop.Level, Reason: reason})
}

func cpNotice(t Trigger, hop Hop, amount decimal.Decimal, status domain.TransactionStatus) Notice {
	n := Notice{
		MemberID: hop.MemberID,
		Data: map[string]any{
			"event_id": t.EventID,
			"reason":   string(t.Reason),
			"level":    hop.Level,
			"amount":   amount.StringFixed(2),
			"status":   string(status),
		},
	}
	switch status {
	case domain.StatusOnHold:
		n.Type = domain.NotifyCPOnHold
		n.Title = "Community points on hold"
		n.Body = fmt.Sprintf("%s CP from level %d is on hold until you unlock that level.", amount.StringFixed(2), hop.Level)
	case domain.StatusAvailable:
		n.Type = domain.NotifyCPEarned
		n.Title = "Community points earned"
		n.Body = fmt.Sprintf("You earned %s CP from level %d.", amount.StringFixed(2), hop.Level)
	case domain.StatusReleased:
		// legs are never recorded as released
	}
	return n
}
