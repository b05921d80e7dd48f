// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Data        DataConfig
	Server      ServerConfig
	Points      PointsConfig
	Admin       AdminConfig
	Search      SearchConfig
	OpenLibrary OpenLibraryConfig
	Notify      NotifyConfig
	RateLimit   RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	// BasePath holds the badger database and the search index.
	BasePath string
	// TxnRetries bounds retries of conflicting store transactions (default: 5)
	TxnRetries int
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// PointsConfig holds leaderboard points configuration.
type PointsConfig struct {
	// TimeZone is the IANA zone whose midnight starts a new points day (default: UTC)
	TimeZone string
	// Daily is granted by the first reading log of a day (default: 10)
	Daily int64

	location *time.Location
}

// Location returns the resolved points time zone. Validate resolves it;
// an unvalidated config falls back to UTC.
func (p PointsConfig) Location() *time.Location {
	if p.location == nil {
		return time.UTC
	}
	return p.location
}

// AdminConfig holds configuration of the administrative operations.
type AdminConfig struct {
	// Token, when set, must be presented as a bearer token on admin and cron routes.
	Token string
}

// SearchConfig selects the custom book and user search backend.
type SearchConfig struct {
	// Backend is "scan" or "bleve" (default: scan)
	Backend string
}

// OpenLibraryConfig holds the external catalog client configuration.
type OpenLibraryConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

// NotifyConfig holds notification delivery configuration.
type NotifyConfig struct {
	// WebhookURL receives one POST per notification. Empty disables delivery.
	WebhookURL  string
	Concurrency int
}

// RateLimitConfig holds the per-client inbound request limit.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Search backends.
const (
	SearchBackendScan  = "scan"
	SearchBackendBleve = "bleve"
)

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("readerboard", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the database and search index")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	pointsTZ := fs.String("points-timezone", "", "IANA time zone of the points day (default: UTC)")
	searchBackend := fs.String("search-backend", "", "Search backend: scan or bleve (default: scan)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:   getConfigValue(*dataPath, "DATA_PATH", ""),
			TxnRetries: getIntConfigValue("", "STORE_TXN_RETRIES", 5),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Points: PointsConfig{
			TimeZone: getConfigValue(*pointsTZ, "POINTS_TIMEZONE", "UTC"),
			Daily:    int64(getIntConfigValue("", "DAILY_POINTS", 10)),
		},
		Admin: AdminConfig{
			Token: getConfigValue("", "ADMIN_TOKEN", ""),
		},
		Search: SearchConfig{
			Backend: strings.ToLower(getConfigValue(*searchBackend, "SEARCH_BACKEND", SearchBackendScan)),
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL: getConfigValue("", "OPENLIBRARY_BASE_URL", "https://openlibrary.org"),
		},
		Notify: NotifyConfig{
			WebhookURL:  getConfigValue("", "NOTIFY_WEBHOOK_URL", ""),
			Concurrency: getIntConfigValue("", "NOTIFY_CONCURRENCY", 4),
		},
		RateLimit: RateLimitConfig{
			RPS:   getFloatConfigValue("", "RATE_LIMIT_RPS", 20),
			Burst: getIntConfigValue("", "RATE_LIMIT_BURST", 40),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.OpenLibrary.CacheTTL, err = getDurationConfigValue("", "OPENLIBRARY_CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid openlibrary cache ttl: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
// It also resolves the points time zone.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Search.Backend {
	case SearchBackendScan, SearchBackendBleve:
	default:
		return fmt.Errorf("invalid search backend: %s (must be scan or bleve)", c.Search.Backend)
	}

	loc, err := time.LoadLocation(c.Points.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid points time zone %q: %w", c.Points.TimeZone, err)
	}
	c.Points.location = loc

	if c.Points.Daily <= 0 {
		return fmt.Errorf("daily points must be positive, got %d", c.Points.Daily)
	}

	if c.OpenLibrary.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.OpenLibrary.BaseURL); err != nil {
			return fmt.Errorf("invalid openlibrary base url: %w", err)
		}
	}

	if c.Notify.Concurrency <= 0 {
		c.Notify.Concurrency = 1
	}

	return nil
}

// DatabasePath is the badger directory under the data path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Data.BasePath, "db")
}

// SearchIndexPath is the bleve index directory under the data path.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.Data.BasePath, "search.bleve")
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Readerboard", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, raw, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Variables already set in the environment are not overwritten.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
