package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loyalty/config"
	"loyalty/internal/domain"
	"loyalty/internal/engine"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/txn"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type CreatePurchaseInput struct {
	MemberID  uint
	Amount    decimal.Decimal
	PointPool *decimal.Decimal // defaults to Amount x pool rate
	Reference string
}

// PurchaseService records purchases and settles their pool on approval.
type PurchaseService struct {
	store    *repository.Store
	runner   *txn.Runner
	orch     *engine.Orchestrator
	splits   *SplitSettings
	notifier Notifier
	poolRate decimal.Decimal
	clock    clockwork.Clock
	log      *slog.Logger
}

func NewPurchaseService(store *repository.Store, runner *txn.Runner, orch *engine.Orchestrator, splits *SplitSettings, notifier Notifier, poolRate decimal.Decimal, clock clockwork.Clock, log *slog.Logger) *PurchaseService {
	return &PurchaseService{
		store:    store,
		runner:   runner,
		orch:     orch,
		splits:   splits,
		notifier: notifier,
		poolRate: poolRate,
		clock:    clock,
		log:      log,
	}
}

// Create records a pending purchase. Nothing is distributed until approval.
func (s *PurchaseService) Create(ctx context.Context, in CreatePurchaseInput) (*models.Purchase, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("purchase amount must be positive")
	}
	if _, err := s.store.Members.GetByID(ctx, in.MemberID); err != nil {
		return nil, err
	}
	pool := in.Amount.Mul(s.poolRate).Round(2)
	if in.PointPool != nil {
		pool = in.PointPool.Round(2)
	}
	if !pool.IsPositive() {
		return nil, domain.ErrInvalidPool
	}
	p := &models.Purchase{
		MemberID:  in.MemberID,
		Amount:    in.Amount.Round(2),
		PointPool: pool,
		Reference: in.Reference,
		Status:    domain.PurchasePending,
	}
	if err := s.store.Purchases.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Approve marks a pending purchase approved and settles its pool in the same transaction.
func (s *PurchaseService) Approve(ctx context.Context, id uint) (*models.Purchase, *engine.Settlement, error) {
	split, err := s.splits.Purchase(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		purchase *models.Purchase
		st       *engine.Settlement
	)
	err = s.runner.Do(ctx, func(tx *repository.Store) error {
		p, err := tx.Purchases.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != domain.PurchasePending {
			return domain.ErrPurchaseNotPending
		}
		pid := p.ID
		settled, err := s.orch.Settle(ctx, txn.EngineTx(tx), engine.Event{
			Reason:          domain.ReasonPurchase,
			SubjectMemberID: p.MemberID,
			PurchaseID:      &pid,
			Pool:            p.PointPool,
			Split:           split,
			Reference:       fmt.Sprintf("purchase:%d", p.ID),
		})
		if err != nil {
			return err
		}
		now := s.clock.Now()
		p.Status = domain.PurchaseApproved
		p.EventID = settled.EventID
		p.ApprovedAt = &now
		if err := tx.Purchases.Save(ctx, p); err != nil {
			return fmt.Errorf("save purchase %d: %w", p.ID, err)
		}
		purchase, st = p, settled
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPurchaseNotFound) && !errors.Is(err, domain.ErrPurchaseNotPending) {
			s.log.Error("purchase: approval failed", "purchase_id", id, "error", err)
		}
		return nil, nil, err
	}
	st.Observe()
	s.log.Info("purchase: approved",
		"purchase_id", purchase.ID,
		"member_id", purchase.MemberID,
		"pool", purchase.PointPool.StringFixed(2),
		"event_id", st.EventID)
	s.notifier.Dispatch(ctx, st.Notices)
	return purchase, st, nil
}

// Reject marks a pending purchase rejected. No points move.
func (s *PurchaseService) Reject(ctx context.Context, id uint) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.runner.Do(ctx, func(tx *repository.Store) error {
		p, err := tx.Purchases.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != domain.PurchasePending {
			return domain.ErrPurchaseNotPending
		}
		p.Status = domain.PurchaseRejected
		if err := tx.Purchases.Save(ctx, p); err != nil {
			return err
		}
		purchase = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *PurchaseService) ListByMember(ctx context.Context, memberID uint, limit, offset int) ([]models.Purchase, error) {
	return s.store.Purchases.ListByMember(ctx, memberID, limit, offset)
}

// SplitSettings resolves the purchase split: configured defaults overridden by settings rows.
type SplitSettings struct {
	settings *repository.SettingRepository
	runner   *txn.Runner
	defaults engine.Split
}

func NewSplitSettings(store *repository.Store, runner *txn.Runner, cfg config.SplitConfig) *SplitSettings {
	return &SplitSettings{
		settings: store.Settings,
		runner:   runner,
		defaults: engine.Split{PP: cfg.PP, RP: cfg.RP, CP: cfg.CP, CR: cfg.CR},
	}
}

func (s *SplitSettings) keys() []struct {
	key string
	dst func(*engine.Split) *decimal.Decimal
} {
	return []struct {
		key string
		dst func(*engine.Split) *decimal.Decimal
	}{
		{domain.SettingPurchaseSplitPP, func(sp *engine.Split) *decimal.Decimal { return &sp.PP }},
		{domain.SettingPurchaseSplitRP, func(sp *engine.Split) *decimal.Decimal { return &sp.RP }},
		{domain.SettingPurchaseSplitCP, func(sp *engine.Split) *decimal.Decimal { return &sp.CP }},
		{domain.SettingPurchaseSplitCR, func(sp *engine.Split) *decimal.Decimal { return &sp.CR }},
	}
}

// Purchase returns the split in effect. An override set that does not sum to 100 is an error.
func (s *SplitSettings) Purchase(ctx context.Context) (engine.Split, error) {
	split := s.defaults
	for _, k := range s.keys() {
		row, ok, err := s.settings.Get(ctx, k.key)
		if err != nil {
			return engine.Split{}, fmt.Errorf("read setting %s: %w", k.key, err)
		}
		if !ok {
			continue
		}
		d, err := row.Percentage()
		if err != nil {
			return engine.Split{}, err
		}
		*k.dst(&split) = d
	}
	if err := split.Validate(); err != nil {
		return engine.Split{}, err
	}
	return split, nil
}

// SetPurchase validates and stores a new purchase split.
func (s *SplitSettings) SetPurchase(ctx context.Context, split engine.Split) error {
	if err := split.Validate(); err != nil {
		return err
	}
	return s.runner.Do(ctx, func(st *repository.Store) error {
		for _, k := range s.keys() {
			if err := st.Settings.Set(ctx, k.key, k.dst(&split).StringFixed(2)); err != nil {
				return err
			}
		}
		return nil
	})
}
