package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"loyalty/internal/engine"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/txn"
)

// LevelConfigService owns the level percentage table. Distributions read the cached
// registry; admins replace the table in bulk.
type LevelConfigService struct {
	// mu orders table writes so the cached table matches the last committed one.
	mu       sync.Mutex
	levels   *repository.LevelConfigRepository
	runner   *txn.Runner
	registry *engine.LevelRegistry
	log      *slog.Logger
}

func NewLevelConfigService(store *repository.Store, runner *txn.Runner, log *slog.Logger) *LevelConfigService {
	return &LevelConfigService{levels: store.Levels, runner: runner, log: log}
}

// Load reads and validates the stored table. A stored table that fails validation is
// a startup failure.
func (s *LevelConfigService) Load(ctx context.Context) (*engine.LevelRegistry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.levels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load level config: %w", err)
	}
	table, err := engine.NewLevelTable(rows)
	if err != nil {
		return nil, err
	}
	s.install(table)
	return s.registry, nil
}

func (s *LevelConfigService) install(table *engine.LevelTable) {
	if s.registry == nil {
		s.registry = engine.NewLevelRegistry(table)
	} else {
		s.registry.Swap(table)
	}
}

// Registry returns the cached table handle. Load must have been called.
func (s *LevelConfigService) Registry() *engine.LevelRegistry {
	return s.registry
}

func (s *LevelConfigService) Current() []models.LevelConfig {
	if s.registry == nil {
		return nil
	}
	return s.registry.Current().Rows()
}

// Replace validates rows and swaps them in as one unit. On any error nothing changes.
func (s *LevelConfigService) Replace(ctx context.Context, rows []models.LevelConfig) ([]models.LevelConfig, error) {
	table, err := engine.NewLevelTable(rows)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.runner.Do(ctx, func(st *repository.Store) error {
		return st.Levels.ReplaceAll(ctx, table.Rows())
	})
	if err != nil {
		return nil, fmt.Errorf("replace level config: %w", err)
	}
	s.install(table)
	s.log.Info("levels: configuration replaced", "rows", len(rows))
	return table.Rows(), nil
}

// Reload refreshes the cache from storage. An invalid stored table keeps the last valid one.
func (s *LevelConfigService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.levels.List(ctx)
	if err != nil {
		return err
	}
	table, err := engine.NewLevelTable(rows)
	if err != nil {
		s.log.Error("levels: stored configuration invalid, keeping last valid table", "error", err)
		return err
	}
	if s.registry != nil {
		s.registry.Swap(table)
	}
	return nil
}
