package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{DatabaseURL: "postgres://localhost:5432/bandcal"}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_MinimalConfig(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidate_FullConfig(t *testing.T) {
	retries := 5
	cfg := &Config{
		DatabaseURL:     "postgres://localhost:5432/bandcal",
		RedisAddr:       "localhost:6379",
		CacheTTL:        time.Minute,
		WindowMonths:    12,
		ScheduleRRule:   "FREQ=WEEKLY;BYDAY=FR,SA,SU",
		PollInterval:    30 * time.Second,
		StaleAfter:      2 * time.Minute,
		VerifyRetries:   &retries,
		VerifyBaseDelay: 100 * time.Millisecond,
		Timezone:        "Europe/London",
		MetricsAddr:     ":9090",
	}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_WindowMonthsOutOfRange(t *testing.T) {
	for _, months := range []int{-1, 25} {
		cfg := validConfig()
		cfg.WindowMonths = months

		err := Validate(cfg)
		assert.Error(t, err, "months=%d", months)
	}
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := validConfig()
	cfg.ScheduleRRule = "INVALID_RRULE_SYNTAX"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Mars/Olympus_Mons"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timezone")
}

func TestValidate_InvalidRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.RedisAddr = "not an address"

	err := Validate(cfg)
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x"}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultWindowMonths, cfg.WindowMonths)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultStaleAfter, cfg.StaleAfter)
	assert.Equal(t, DefaultVerifyRetries, cfg.Retries())
	assert.Equal(t, DefaultVerifyBaseDelay, cfg.VerifyBaseDelay)
}

func TestApplyDefaults_KeepsExplicitZeroRetries(t *testing.T) {
	zero := 0
	cfg := &Config{DatabaseURL: "postgres://x", VerifyRetries: &zero}
	cfg.ApplyDefaults()

	assert.Equal(t, 0, cfg.Retries())
}

func TestLocation(t *testing.T) {
	cfg := validConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "America/New_York"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	content := `
databaseURL: "postgres://localhost:5432/bandcal"
redisAddr: "localhost:6379"
cacheTTL: 1m
windowMonths: 3
scheduleRRule: "FREQ=WEEKLY;BYDAY=FR,SA,SU"
pollInterval: 10s
verifyRetries: 2
verifyBaseDelay: 50ms
timezone: "Europe/London"
`

	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/bandcal", cfg.DatabaseURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.WindowMonths)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=FR,SA,SU", cfg.ScheduleRRule)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 2, cfg.Retries())
	assert.Equal(t, 50*time.Millisecond, cfg.VerifyBaseDelay)

	// Unset fields fall back to defaults
	assert.Equal(t, DefaultStaleAfter, cfg.StaleAfter)
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	content := `
databaseURL: "postgres://localhost:5432/bandcal"
scheduleRRule: "INVALID_RRULE"
`

	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)

	_, err = LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	err := os.WriteFile(configPath, []byte("databaseURL: [unclosed"), 0644)
	require.NoError(t, err)

	_, err = LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadWithEnv_FindsEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	chdir(t, tmpDir)

	content := `databaseURL: "postgres://localhost:5432/bandcal_test"`
	err := os.WriteFile(filepath.Join(tmpDir, "bandcal_config.test.yaml"), []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/bandcal_test", cfg.DatabaseURL)
}

func TestLoadWithEnv_Missing(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := LoadWithEnv("staging")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bandcal_config.staging.yaml")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
