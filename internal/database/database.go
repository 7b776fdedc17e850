package database

import (
	"context"
	"fmt"

	"loyalty/config"
	"loyalty/internal/engine"
	"loyalty/internal/models"
	"loyalty/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql", "":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Member{},
		&models.MemberWallet{},
		&models.ReferralCode{},
		&models.ReferralEdge{},
		&models.LevelConfig{},
		&models.MemberCommunityPoint{},
		&models.CpTransaction{},
		&models.CpUnlockHistory{},
		&models.CompanyReserve{},
		&models.Purchase{},
		&models.PointTransaction{},
		&models.Notification{},
		&models.SystemSetting{},
	)
}

// Seed inserts the default level table when none exists and the company reserve row.
func Seed(ctx context.Context, db *gorm.DB) error {
	s := repository.NewStore(db)
	if err := s.Levels.SeedDefaults(ctx, engine.DefaultLevelConfigs()); err != nil {
		return fmt.Errorf("seed level config: %w", err)
	}
	if err := s.Reserve.Ensure(ctx); err != nil {
		return fmt.Errorf("seed company reserve: %w", err)
	}
	return nil
}
