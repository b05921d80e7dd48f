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
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Points: PointsConfig{TimeZone: "UTC", Daily: 10},
		Search: SearchConfig{Backend: SearchBackendScan},
		Notify: NotifyConfig{Concurrency: 4},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()

	err := cfg.Validate()
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.Points.Location())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_SearchBackend(t *testing.T) {
	for backend, valid := range map[string]bool{"scan": true, "bleve": true, "elastic": false, "": false} {
		t.Run(backend, func(t *testing.T) {
			cfg := validConfig()
			cfg.Search.Backend = backend

			err := cfg.Validate()
			if valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "search backend")
			}
		})
	}
}

func TestValidate_PointsTimeZone(t *testing.T) {
	cfg := validConfig()
	cfg.Points.TimeZone = "America/New_York"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "America/New_York", cfg.Points.Location().String())

	cfg = validConfig()
	cfg.Points.TimeZone = "Mars/Olympus_Mons"
	assert.ErrorContains(t, cfg.Validate(), "points time zone")
}

func TestValidate_DailyPoints(t *testing.T) {
	cfg := validConfig()
	cfg.Points.Daily = 0
	assert.ErrorContains(t, cfg.Validate(), "daily points")
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	assert.ErrorContains(t, err, "data path cannot be empty")
}

func TestPointsLocation_DefaultsToUTC(t *testing.T) {
	var p PointsConfig
	assert.Equal(t, time.UTC, p.Location())
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "Readerboard", "data"), cfg.Data.BasePath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "~/my-data"}}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Data.BasePath)
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Data: DataConfig{BasePath: "relative/path"}}

	err := cfg.expandDataPath()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
	assert.Contains(t, cfg.Data.BasePath, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	t.Setenv("TEST_ENV_KEY", "env-value")
	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetIntConfigValue_BadValueUsesDefault(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "many")
	assert.Equal(t, 7, getIntConfigValue("", "TEST_INT_KEY", 7))

	t.Setenv("TEST_INT_KEY", "12")
	assert.Equal(t, 12, getIntConfigValue("", "TEST_INT_KEY", 7))
}

func TestGetFloatConfigValue(t *testing.T) {
	t.Setenv("TEST_FLOAT_KEY", "2.5")
	assert.InDelta(t, 2.5, getFloatConfigValue("", "TEST_FLOAT_KEY", 1), 0.0001)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")

	content := `# Test env file
RB_TEST_ENV=staging
RB_TEST_QUOTED="some value"
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("RB_TEST_ENV", "")
	t.Setenv("RB_TEST_QUOTED", "")
	os.Unsetenv("RB_TEST_ENV")    //nolint:errcheck // Test setup
	os.Unsetenv("RB_TEST_QUOTED") //nolint:errcheck // Test setup

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("RB_TEST_ENV"))
	assert.Equal(t, "some value", os.Getenv("RB_TEST_QUOTED"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("RB_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`RB_TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("RB_TEST_VAR"))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SEARCH_BACKEND", "bleve")
	t.Setenv("DAILY_POINTS", "25")

	cfg, err := Load([]string{
		"-env-file", filepath.Join(dataDir, "missing.env"),
		"-data-path", dataDir,
		"-port", "9100",
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, SearchBackendBleve, cfg.Search.Backend)
	assert.Equal(t, int64(25), cfg.Points.Daily)
	assert.Equal(t, dataDir, cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(dataDir, "db"), cfg.DatabasePath())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Minute, cfg.OpenLibrary.CacheTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SERVER_IDLE_TIMEOUT", "soon")

	_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env"), "-data-path", t.TempDir()})
	assert.ErrorContains(t, err, "idle timeout")
}
