package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"loyalty/internal/domain"
	"loyalty/internal/engine"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/txn"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	ReferralCode string
}

type Registration struct {
	Member       *models.Member
	Wallet       *models.MemberWallet
	ReferralCode string
	SponsorID    uint
	Settlement   *engine.Settlement
	Unlock       *engine.UnlockResult
}

// RegistrationService signs up members and settles the registration pool.
type RegistrationService struct {
	runner   *txn.Runner
	orch     *engine.Orchestrator
	gate     *engine.Gate
	notifier Notifier
	pool     decimal.Decimal
	log      *slog.Logger
}

func NewRegistrationService(runner *txn.Runner, orch *engine.Orchestrator, gate *engine.Gate, notifier Notifier, pool decimal.Decimal, log *slog.Logger) *RegistrationService {
	return &RegistrationService{
		runner:   runner,
		orch:     orch,
		gate:     gate,
		notifier: notifier,
		pool:     pool,
		log:      log,
	}
}

// Register creates the member, wallet, referral code and sponsor edge, runs the unlock
// gate for the sponsor and settles the registration pool, all in one transaction.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.ReferralCode = strings.ToLower(strings.TrimSpace(in.ReferralCode))
	eventID := uuid.NewString()

	var reg *Registration
	err := s.runner.Do(ctx, func(st *repository.Store) error {
		reg = &Registration{}
		var sponsorID uint
		if in.ReferralCode != "" {
			rc, err := st.Referrals.GetByCode(ctx, in.ReferralCode)
			if err != nil {
				return err
			}
			sponsorID = rc.MemberID
		}

		m := &models.Member{Name: in.Name, Email: in.Email, Phone: in.Phone, Role: domain.RoleMember}
		if err := st.Members.Create(ctx, m); err != nil {
			return err
		}
		w, err := st.Wallets.Create(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("create wallet: %w", err)
		}
		rc, err := st.Referrals.GetOrCreateCode(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("create referral code: %w", err)
		}
		reg.Member, reg.Wallet, reg.ReferralCode = m, w, rc.Code

		tx := txn.EngineTx(st)
		if sponsorID != 0 {
			edge := &models.ReferralEdge{ParentMemberID: sponsorID, ChildMemberID: m.ID}
			if err := st.Referrals.CreateEdge(ctx, edge); err != nil {
				return fmt.Errorf("create referral edge: %w", err)
			}
			reg.SponsorID = sponsorID
			reg.Unlock, err = s.gate.OnReferralCountChanged(ctx, tx, sponsorID)
			if domain.IsMissingWallet(err) {
				s.log.Warn("registration: sponsor has no wallet, gate skipped", "sponsor_id", sponsorID)
				reg.Unlock, err = nil, nil
			}
			if err != nil {
				return err
			}
		}

		reg.Settlement, err = s.orch.Settle(ctx, tx, engine.Event{
			EventID:         eventID,
			Reason:          domain.ReasonRegistration,
			SubjectMemberID: m.ID,
			Pool:            s.pool,
			Split:           engine.RegistrationSplit(),
			Reference:       fmt.Sprintf("member:%d", m.ID),
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidReferralCode) && !errors.Is(err, domain.ErrEmailTaken) {
			s.log.Error("registration: failed", "email", in.Email, "error", err)
		}
		return nil, err
	}

	reg.Unlock.Observe()
	reg.Settlement.Observe()
	s.log.Info("registration: member joined",
		"member_id", reg.Member.ID,
		"sponsor_id", reg.SponsorID,
		"event_id", eventID)
	s.notifier.Dispatch(ctx, reg.notices())
	return reg, nil
}

func (r *Registration) notices() []engine.Notice {
	var out []engine.Notice
	if r.SponsorID != 0 {
		out = append(out, engine.Notice{
			MemberID: r.SponsorID,
			Type:     domain.NotifyNewReferral,
			Title:    "New referral",
			Body:     r.Member.Name + " joined with your referral code",
			Data:     map[string]any{"member_id": r.Member.ID},
		})
	}
	if r.Unlock != nil {
		out = append(out, r.Unlock.Notices...)
	}
	if r.Settlement != nil {
		out = append(out, r.Settlement.Notices...)
	}
	return out
}
