package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*24*time.Hour, cfg.TrialDuration)
	assert.Equal(t, 60, cfg.SendPerMinute)
	assert.Equal(t, 20, cfg.SendBurst)
	assert.Empty(t, cfg.BootstrapAdminEmail)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TRIAL_DURATION", "72h")
	t.Setenv("SEND_RATE_PER_MINUTE", "10")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.TrialDuration)
	assert.Equal(t, 10, cfg.SendPerMinute)
	assert.Equal(t, "root@example.com", cfg.BootstrapAdminEmail)
}

func TestLoadConfig_BadValues(t *testing.T) {
	t.Setenv("ACCESS_TRIAL_DURATION", "a fortnight")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadInt(t *testing.T) {
	t.Setenv("SEND_RATE_BURST", "lots")
	_, err := LoadConfig()
	assert.Error(t, err)
}
