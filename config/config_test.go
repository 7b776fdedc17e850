package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, "8099", cfg.Server.Port)
	require.Equal(t, "100", cfg.Engine.RegistrationPool.String())
	require.Equal(t, time.Hour, cfg.Scheduler.SweepInterval)

	split := cfg.Engine.PurchaseSplit
	require.Equal(t, "100", split.PP.Add(split.RP).Add(split.CP).Add(split.CR).String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENGINE_REGISTRATION_POOL", "250.50")
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("ENGINE_LOCK_RETRIES", "not-a-number")

	cfg := Load()
	require.Equal(t, "9000", cfg.Server.Port)
	require.Equal(t, "250.5", cfg.Engine.RegistrationPool.String())
	require.Equal(t, 15*time.Minute, cfg.Scheduler.SweepInterval)
	require.False(t, cfg.Scheduler.Enabled)
	require.Equal(t, 5, cfg.Engine.LockRetries)
}
