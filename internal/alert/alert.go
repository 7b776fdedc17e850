// Package alert reports data-integrity failures to Sentry and the log.
package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"loyalty/config"
	"loyalty/internal/domain"

	"github.com/getsentry/sentry-go"
)

// Init configures the global Sentry client. An empty DSN leaves Sentry disabled.
func Init(cfg config.SentryConfig) (flush func(), err error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Sentry captures alerts on a Sentry hub and logs them at error level.
type Sentry struct {
	hub *sentry.Hub
	log *slog.Logger
}

func NewSentry(hub *sentry.Hub, log *slog.Logger) *Sentry {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Sentry{hub: hub, log: log}
}

func (s *Sentry) Alert(ctx context.Context, err error) {
	s.log.ErrorContext(ctx, "alert: data integrity failure", "error", err)

	hub := s.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "distribution")
		var gerr *domain.GraphIntegrityError
		if errors.As(err, &gerr) {
			scope.SetTag("kind", "referral_cycle")
			scope.SetContext("referral_cycle", sentry.Context{
				"member_id": gerr.MemberID,
				"path":      gerr.Path,
			})
		}
		scope.SetLevel(sentry.LevelFatal)
		hub.CaptureException(err)
	})
}
