package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Engine    EngineConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
	Firebase  FirebaseConfig
	SMTP      SMTPConfig
	Sentry    SentryConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// SplitConfig is a pool split in percent. The four parts must sum to 100.
type SplitConfig struct {
	PP decimal.Decimal
	RP decimal.Decimal
	CP decimal.Decimal
	CR decimal.Decimal
}

type EngineConfig struct {
	RegistrationPool decimal.Decimal // points shared out per registration
	PurchasePoolRate decimal.Decimal // pool = purchase amount x rate
	PurchaseSplit    SplitConfig
	LockRetries      int
	LockBaseBackoff  time.Duration
	LockMaxBackoff   time.Duration
}

type SchedulerConfig struct {
	SweepInterval    time.Duration
	SweepConcurrency int
	Enabled          bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type FirebaseConfig struct {
	CredentialsFile string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SentryConfig struct {
	DSN         string
	Environment string
}

// Load reads .env when present, then applies environment overrides to the defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         envString("PORT", "8099"),
			Env:          envString("APP_ENV", "development"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          envString("DB_DRIVER", "mysql"),
			DSN:             envString("DB_DSN", "loyalty:loyalty@tcp(localhost:3306)/loyalty?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret: envString("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: envDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
			Issuer:       envString("JWT_ISSUER", "loyalty"),
		},
		Engine: EngineConfig{
			RegistrationPool: envDecimal("ENGINE_REGISTRATION_POOL", decimal.NewFromInt(100)),
			PurchasePoolRate: envDecimal("ENGINE_PURCHASE_POOL_RATE", decimal.RequireFromString("0.10")),
			PurchaseSplit: SplitConfig{
				PP: envDecimal("ENGINE_PURCHASE_SPLIT_PP", decimal.NewFromInt(10)),
				RP: envDecimal("ENGINE_PURCHASE_SPLIT_RP", decimal.NewFromInt(20)),
				CP: envDecimal("ENGINE_PURCHASE_SPLIT_CP", decimal.NewFromInt(50)),
				CR: envDecimal("ENGINE_PURCHASE_SPLIT_CR", decimal.NewFromInt(20)),
			},
			LockRetries:     envInt("ENGINE_LOCK_RETRIES", 5),
			LockBaseBackoff: envDuration("ENGINE_LOCK_BASE_BACKOFF", 20*time.Millisecond),
			LockMaxBackoff:  envDuration("ENGINE_LOCK_MAX_BACKOFF", 500*time.Millisecond),
		},
		Scheduler: SchedulerConfig{
			SweepInterval:    envDuration("SWEEP_INTERVAL", time.Hour),
			SweepConcurrency: envInt("SWEEP_CONCURRENCY", 4),
			Enabled:          envBool("SWEEP_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloat("RATE_LIMIT_RPS", 5),
			Burst:             envInt("RATE_LIMIT_BURST", 20),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: envString("FIREBASE_CREDENTIALS_FILE", ""),
		},
		SMTP: SMTPConfig{
			Host:     envString("SMTP_HOST", ""),
			Port:     envInt("SMTP_PORT", 587),
			Username: envString("SMTP_USERNAME", ""),
			Password: envString("SMTP_PASSWORD", ""),
			From:     envString("SMTP_FROM", "no-reply@loyalty.local"),
		},
		Sentry: SentryConfig{
			DSN:         envString("SENTRY_DSN", ""),
			Environment: envString("SENTRY_ENVIRONMENT", "development"),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
