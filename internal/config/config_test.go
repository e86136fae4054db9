package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaultsWithoutFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 1, cfg.Loyalty.PointsPerVisit)
	assert.Equal(t, 90, cfg.Loyalty.InactivityDays)
	assert.False(t, cfg.Loyalty.KeepGoalAfterRedemption)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileReadsYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt:
  secret: from-file
loyalty:
  inactivity_days: 30
  keep_goal_after_redemption: true
`), 0o600))
	t.Setenv("LOYALTY_POINTS_PER_VISIT", "2")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30, cfg.Loyalty.InactivityDays)
	assert.True(t, cfg.Loyalty.KeepGoalAfterRedemption)
	assert.Equal(t, 2, cfg.Loyalty.PointsPerVisit)
}

func TestValidateRequiresSecret(t *testing.T) {
	var cfg Config
	cfg.Loyalty.PointsPerVisit = 1
	cfg.Loyalty.InactivityDays = 90
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Loyalty.PointsPerVisit = 0
	assert.Error(t, cfg.Validate())
}
