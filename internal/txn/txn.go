// Package txn runs units of work in one database transaction and retries them when
// the database reports a lock conflict.
package txn

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/engine"
	"loyalty/internal/metrics"
	"loyalty/internal/repository"

	"github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseBackoff: 20 * time.Millisecond,
		MaxBackoff:  500 * time.Millisecond,
	}
}

type Runner struct {
	db  *gorm.DB
	cfg Config
	log *slog.Logger
}

func NewRunner(db *gorm.DB, cfg Config, log *slog.Logger) *Runner {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultConfig().BaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	return &Runner{db: db, cfg: cfg, log: log}
}

// Do runs fn inside a transaction. fn may run more than once, so it must not keep
// state across attempts. A conflict that survives every attempt is returned as a
// *domain.ConcurrencyConflictError; any other error rolls back and is returned as is.
func (r *Runner) Do(ctx context.Context, fn func(s *repository.Store) error) error {
	b := retry.NewExponential(r.cfg.BaseBackoff)
	b = retry.WithCappedDuration(r.cfg.MaxBackoff, b)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(uint64(r.cfg.MaxAttempts-1), b)

	attempts := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(repository.NewStore(tx))
		})
		if err != nil && IsConflict(err) {
			r.log.Debug("txn: lock conflict, retrying", "attempt", attempts, "error", err)
			metrics.TxRetriesTotal.WithLabelValues("conflict").Inc()
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && IsConflict(err) {
		metrics.TxRetriesTotal.WithLabelValues("exhausted").Inc()
		r.log.Warn("txn: giving up after lock conflicts", "attempts", attempts, "error", err)
		return &domain.ConcurrencyConflictError{Attempts: attempts, Err: err}
	}
	return err
}

// EngineTx binds the engine's stores to a transaction-scoped Store.
func EngineTx(s *repository.Store) engine.Tx {
	return engine.Tx{
		Edges:   s.Referrals,
		Wallets: s.Wallets,
		Ledger:  s.Ledger,
		Unlocks: s.Unlocks,
		Points:  s.Points,
		Reserve: s.Reserve,
	}
}

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// IsConflict reports whether err is a lock conflict worth retrying.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Two events creating the same lazily-created balance row.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}
