package service

import (
	"context"
	"log/slog"

	"loyalty/config"
	"loyalty/internal/alert"
	"loyalty/internal/engine"
	"loyalty/internal/repository"
	"loyalty/internal/txn"
	"loyalty/internal/ws"
	"loyalty/pkg/mailer"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Deps are the outside collaborators of the App. Every field except Log may be nil.
type Deps struct {
	Log     *slog.Logger
	Clock   clockwork.Clock
	Alerter engine.Alerter
	FCM     *FCMService
	Mail    mailer.Sender
	Hub     *ws.Hub
}

// App wires repositories, the engine and the services over one database.
type App struct {
	Store         *repository.Store
	Runner        *txn.Runner
	Levels        *LevelConfigService
	Gate          *engine.Gate
	Orchestrator  *engine.Orchestrator
	Notifications *NotificationService
	Registration  *RegistrationService
	Purchases     *PurchaseService
	Splits        *SplitSettings
	Sweeper       *ReleaseSweeper
	Hub           *ws.Hub
}

// NewApp loads the level configuration and builds the services. A stored level table
// that fails validation is returned as an error.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB, deps Deps) (*App, error) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Hub == nil {
		deps.Hub = ws.NewHub()
	}
	log := deps.Log

	store := repository.NewStore(db)
	runner := txn.NewRunner(db, txn.Config{
		MaxAttempts: cfg.Engine.LockRetries,
		BaseBackoff: cfg.Engine.LockBaseBackoff,
		MaxBackoff:  cfg.Engine.LockMaxBackoff,
	}, log)

	levels := NewLevelConfigService(store, runner, log)
	registry, err := levels.Load(ctx)
	if err != nil {
		return nil, err
	}

	a := &App{
		Store:  store,
		Runner: runner,
		Levels: levels,
		Gate:   engine.NewGate(deps.Clock, log),
		Hub:    deps.Hub,
	}
	a.Orchestrator = engine.NewOrchestrator(registry, deps.Clock, deps.Alerter, log)
	a.Notifications = NewNotificationService(store, deps.FCM, deps.Hub, deps.Mail, log)
	a.Registration = NewRegistrationService(runner, a.Orchestrator, a.Gate, a.Notifications, cfg.Engine.RegistrationPool, log)
	a.Splits = NewSplitSettings(store, runner, cfg.Engine.PurchaseSplit)
	a.Purchases = NewPurchaseService(store, runner, a.Orchestrator, a.Splits, a.Notifications, cfg.Engine.PurchasePoolRate, deps.Clock, log)
	a.Sweeper = NewReleaseSweeper(store, runner, a.Gate, levels, a.Notifications, SweeperConfig{
		Interval:    cfg.Scheduler.SweepInterval,
		Concurrency: cfg.Scheduler.SweepConcurrency,
		Clock:       deps.Clock,
	}, log)
	return a, nil
}

// NewDeps builds the delivery channels and the alerter from configuration. Channels that
// are not configured stay nil.
func NewDeps(ctx context.Context, cfg *config.Config, log *slog.Logger) Deps {
	deps := Deps{
		Log:     log,
		Clock:   clockwork.NewRealClock(),
		Alerter: alert.NewSentry(nil, log),
		Hub:     ws.NewHub(),
		FCM:     NewFCMService(ctx, cfg.Firebase.CredentialsFile, log),
	}
	if m := mailer.New(mailer.Config(cfg.SMTP)); m != nil {
		deps.Mail = m
	}
	if deps.FCM != nil {
		log.Info("notify: push notifications enabled")
	} else if cfg.Firebase.CredentialsFile != "" {
		log.Warn("notify: push notifications disabled, firebase init failed (check credentials file)")
	}
	return deps
}
