package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"loyalty/internal/engine"
	"loyalty/internal/metrics"
	"loyalty/internal/repository"
	"loyalty/internal/txn"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type SweeperConfig struct {
	Interval    time.Duration
	Concurrency int
	Clock       clockwork.Clock
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Candidates int             `json:"candidates"`
	Unlocked   int             `json:"unlocked"`
	Released   decimal.Decimal `json:"released"`
	Failed     int             `json:"failed"`
}

// ReleaseSweeper reruns the unlock gate for members whose wallet disagrees with the
// referral graph or who still hold CP at levels they already unlocked.
type ReleaseSweeper struct {
	store    *repository.Store
	runner   *txn.Runner
	gate     *engine.Gate
	levels   *LevelConfigService
	notifier Notifier
	cfg      SweeperConfig
	log      *slog.Logger
	sweepMu  sync.Mutex
}

func NewReleaseSweeper(store *repository.Store, runner *txn.Runner, gate *engine.Gate, levels *LevelConfigService, notifier Notifier, cfg SweeperConfig, log *slog.Logger) *ReleaseSweeper {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &ReleaseSweeper{
		store:    store,
		runner:   runner,
		gate:     gate,
		levels:   levels,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

func (s *ReleaseSweeper) Start(ctx context.Context) {
	go func() {
		s.log.Info("sweeper: starting release loop", "interval", s.cfg.Interval)

		s.safeSweep(ctx)

		ticker := s.cfg.Clock.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.safeSweep(ctx)
			}
		}
	}()
}

func (s *ReleaseSweeper) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sweeper: sweep panicked", "panic", r)
			metrics.SweepRunsTotal.WithLabelValues("panic").Inc()
		}
	}()

	if _, err := s.Sweep(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Error("sweeper: sweep failed", "error", err)
	}
}

// Sweep runs the gate for every candidate, each in its own transaction.
func (s *ReleaseSweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	if s.levels != nil {
		// A bad stored table keeps the cached one; the sweep itself does not need it.
		_ = s.levels.Reload(ctx)
	}

	ids, err := s.candidates(ctx)
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	report := &SweepReport{Candidates: len(ids), Released: decimal.Zero}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			res, err := s.Unlock(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				report.Failed++
				s.log.Warn("sweeper: gate failed", "member_id", id, "error", err)
				return nil
			}
			if res.Unlocked || res.Released.IsPositive() {
				report.Unlocked++
				report.Released = report.Released.Add(res.Released)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return report, err
	}

	status := "ok"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.SweepRunsTotal.WithLabelValues(status).Inc()
	s.log.Info("sweeper: sweep completed",
		"candidates", report.Candidates,
		"unlocked", report.Unlocked,
		"released", report.Released.StringFixed(2),
		"failed", report.Failed,
		"duration", time.Since(start).String())
	return report, nil
}

// Unlock reconciles one member's wallet with the graph and dispatches the resulting notices.
func (s *ReleaseSweeper) Unlock(ctx context.Context, memberID uint) (*engine.UnlockResult, error) {
	var res *engine.UnlockResult
	err := s.runner.Do(ctx, func(st *repository.Store) error {
		var err error
		res, err = s.gate.Reconcile(ctx, txn.EngineTx(st), memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Observe()
	s.notifier.Dispatch(ctx, res.Notices)
	return res, nil
}

func (s *ReleaseSweeper) candidates(ctx context.Context) ([]uint, error) {
	stale, err := s.store.Wallets.MembersWithStaleReferralCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("find stale referral counts: %w", err)
	}
	stranded, err := s.store.Ledger.MembersWithStrandedHolds(ctx)
	if err != nil {
		return nil, fmt.Errorf("find stranded holds: %w", err)
	}
	seen := make(map[uint]struct{}, len(stale)+len(stranded))
	ids := make([]uint, 0, len(stale)+len(stranded))
	for _, id := range append(stale, stranded...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
