package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 0.95, cfg.Run.DefaultCoverageTarget)
	assert.Equal(t, 10000, cfg.Run.MaxAttempts)
	assert.True(t, cfg.Sampling.BiasMitigation)
	assert.Empty(t, cfg.Validation.CompatibilityRules)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("FABNET_DB_MAX_OPEN_CONNS", "7")
	t.Setenv("FABNET_LOG_LEVEL", "debug")
	t.Setenv("FABNET_RUN_DEFAULT_COVERAGE_TARGET", "0.75")
	t.Setenv("FABNET_RUN_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 0.75, cfg.Run.DefaultCoverageTarget)
	assert.Equal(t, 45*time.Second, cfg.Run.Timeout)
}

func TestLoad_ScopePresetsOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coverage_target: 0.6\nmax_attempts: 250\n"), 0o644))
	t.Setenv("FABNET_SCOPE_PRESETS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Run.DefaultCoverageTarget)
	assert.Equal(t, 250, cfg.Run.MaxAttempts)
}

func TestLoad_CompatibilityRulesOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- \"from == to\"\n- \"from == 1 && to == 2\"\n"), 0o644))
	t.Setenv("FABNET_COMPATIBILITY_RULES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"from == to", "from == 1 && to == 2"}, cfg.Validation.CompatibilityRules)
}

func TestLoad_MissingCompatibilityRulesFileErrors(t *testing.T) {
	t.Setenv("FABNET_COMPATIBILITY_RULES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RejectsEmptyDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "", MaxOpenConns: 1}, Logging: LoggingConfig{Level: "info"}, Run: RunConfig{DefaultCoverageTarget: 0.5, MaxAttempts: 1}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvalidLogLevel(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "x", MaxOpenConns: 1}, Logging: LoggingConfig{Level: "trace"}, Run: RunConfig{DefaultCoverageTarget: 0.5, MaxAttempts: 1}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOutOfRangeCoverageTarget(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "x", MaxOpenConns: 1}, Logging: LoggingConfig{Level: "info"}, Run: RunConfig{DefaultCoverageTarget: 1.5, MaxAttempts: 1}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{DSN: "x", MaxOpenConns: 1}, Logging: LoggingConfig{Level: "info"}, Run: RunConfig{DefaultCoverageTarget: 0.5, MaxAttempts: 1}}
	assert.NoError(t, cfg.Validate())
}
