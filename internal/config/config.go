// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory holding fintrack.db (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	Providers ProvidersConfig
	Schedules SchedulesConfig
	Backup    BackupConfig

	// PriceRefreshWorkers bounds how many instruments are resolved concurrently.
	PriceRefreshWorkers int
}

// ProvidersConfig holds endpoints, credentials and pacing for the price and NAV sources.
type ProvidersConfig struct {
	YahooBaseURL        string
	YahooMinInterval    time.Duration
	YahooMaxAttempts    int
	YahooInitialBackoff time.Duration
	YahooTimeout        time.Duration

	TwelveDataBaseURL     string
	TwelveDataAPIKey      string
	TwelveDataMinInterval time.Duration
	TwelveDataTimeout     time.Duration

	AMFINavURL  string
	AMFITimeout time.Duration
}

// SchedulesConfig holds cron expressions (with seconds) for each refresh job.
// An empty expression disables the job.
type SchedulesConfig struct {
	Prices        string
	NAVs          string
	Contributions string
	Amortization  string
	Backup        string
}

// BackupConfig holds S3-compatible backup settings. Backups are disabled when Bucket is empty.
type BackupConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// Enabled reports whether backups are configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// fileConfig mirrors the optional TOML configuration file.
type fileConfig struct {
	DataDir  string `toml:"data_dir"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	DevMode  bool   `toml:"dev_mode"`

	Workers struct {
		Prices int `toml:"prices"`
	} `toml:"workers"`

	Yahoo struct {
		BaseURL        string `toml:"base_url"`
		MinInterval    string `toml:"min_interval"`
		MaxAttempts    int    `toml:"max_attempts"`
		InitialBackoff string `toml:"initial_backoff"`
	} `toml:"yahoo"`

	TwelveData struct {
		BaseURL     string `toml:"base_url"`
		APIKey      string `toml:"api_key"`
		MinInterval string `toml:"min_interval"`
	} `toml:"twelvedata"`

	AMFI struct {
		NavURL string `toml:"nav_url"`
	} `toml:"amfi"`

	Schedules struct {
		Prices        string `toml:"prices"`
		NAVs          string `toml:"navs"`
		Contributions string `toml:"contributions"`
		Amortization  string `toml:"amortization"`
		Backup        string `toml:"backup"`
	} `toml:"schedules"`

	Backup struct {
		Endpoint      string `toml:"endpoint"`
		Region        string `toml:"region"`
		Bucket        string `toml:"bucket"`
		RetentionDays int    `toml:"retention_days"`
	} `toml:"backup"`
}

// Defaults returns the built-in configuration before any file or environment overrides.
func Defaults() *Config {
	return &Config{
		DataDir:             "./data",
		Port:                8080,
		LogLevel:            "info",
		PriceRefreshWorkers: 1,
		Providers: ProvidersConfig{
			YahooBaseURL:          "https://query1.finance.yahoo.com",
			YahooMinInterval:      10 * time.Second,
			YahooMaxAttempts:      3,
			YahooInitialBackoff:   3 * time.Second,
			YahooTimeout:          15 * time.Second,
			TwelveDataBaseURL:     "https://api.twelvedata.com",
			TwelveDataMinInterval: 8 * time.Second,
			TwelveDataTimeout:     15 * time.Second,
			AMFINavURL:            "https://www.amfiindia.com/spages/NAVAll.txt",
			AMFITimeout:           30 * time.Second,
		},
		Schedules: SchedulesConfig{
			Prices:        "0 0 18 * * MON-FRI",
			NAVs:          "0 30 22 * * *",
			Contributions: "0 0 9 * * *",
			Amortization:  "0 0 1 * * *",
			Backup:        "0 0 3 * * SUN",
		},
		Backup: BackupConfig{
			Region:        "auto",
			RetentionDays: 30,
		},
	}
}

// Load reads configuration from the optional TOML file and environment variables.
// Precedence: environment > FINTRACK_CONFIG file > defaults.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Defaults()

	if path := getEnv("FINTRACK_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the location of the record store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "fintrack.db")
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&c.DataDir, fc.DataDir)
	setString(&c.LogLevel, fc.LogLevel)
	setInt(&c.Port, fc.Port)
	setInt(&c.PriceRefreshWorkers, fc.Workers.Prices)
	c.DevMode = c.DevMode || fc.DevMode

	setString(&c.Providers.YahooBaseURL, fc.Yahoo.BaseURL)
	setInt(&c.Providers.YahooMaxAttempts, fc.Yahoo.MaxAttempts)
	if err := setDuration(&c.Providers.YahooMinInterval, fc.Yahoo.MinInterval); err != nil {
		return fmt.Errorf("yahoo.min_interval: %w", err)
	}
	if err := setDuration(&c.Providers.YahooInitialBackoff, fc.Yahoo.InitialBackoff); err != nil {
		return fmt.Errorf("yahoo.initial_backoff: %w", err)
	}

	setString(&c.Providers.TwelveDataBaseURL, fc.TwelveData.BaseURL)
	setString(&c.Providers.TwelveDataAPIKey, fc.TwelveData.APIKey)
	if err := setDuration(&c.Providers.TwelveDataMinInterval, fc.TwelveData.MinInterval); err != nil {
		return fmt.Errorf("twelvedata.min_interval: %w", err)
	}

	setString(&c.Providers.AMFINavURL, fc.AMFI.NavURL)

	setString(&c.Schedules.Prices, fc.Schedules.Prices)
	setString(&c.Schedules.NAVs, fc.Schedules.NAVs)
	setString(&c.Schedules.Contributions, fc.Schedules.Contributions)
	setString(&c.Schedules.Amortization, fc.Schedules.Amortization)
	setString(&c.Schedules.Backup, fc.Schedules.Backup)

	setString(&c.Backup.Endpoint, fc.Backup.Endpoint)
	setString(&c.Backup.Region, fc.Backup.Region)
	setString(&c.Backup.Bucket, fc.Backup.Bucket)
	setInt(&c.Backup.RetentionDays, fc.Backup.RetentionDays)

	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("FINTRACK_DATA_DIR", c.DataDir)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DevMode = getEnvAsBool("DEV_MODE", c.DevMode)
	c.PriceRefreshWorkers = getEnvAsInt("PRICE_REFRESH_WORKERS", c.PriceRefreshWorkers)

	p := &c.Providers
	p.YahooBaseURL = getEnv("YAHOO_BASE_URL", p.YahooBaseURL)
	p.YahooMinInterval = getEnvAsDuration("YAHOO_MIN_INTERVAL", p.YahooMinInterval)
	p.YahooMaxAttempts = getEnvAsInt("YAHOO_MAX_ATTEMPTS", p.YahooMaxAttempts)
	p.YahooInitialBackoff = getEnvAsDuration("YAHOO_INITIAL_BACKOFF", p.YahooInitialBackoff)
	p.TwelveDataBaseURL = getEnv("TWELVEDATA_BASE_URL", p.TwelveDataBaseURL)
	p.TwelveDataAPIKey = getEnv("TWELVEDATA_API_KEY", p.TwelveDataAPIKey)
	p.TwelveDataMinInterval = getEnvAsDuration("TWELVEDATA_MIN_INTERVAL", p.TwelveDataMinInterval)
	p.AMFINavURL = getEnv("AMFI_NAV_URL", p.AMFINavURL)

	s := &c.Schedules
	s.Prices = getEnvRaw("SCHEDULE_PRICES", s.Prices)
	s.NAVs = getEnvRaw("SCHEDULE_NAVS", s.NAVs)
	s.Contributions = getEnvRaw("SCHEDULE_CONTRIBUTIONS", s.Contributions)
	s.Amortization = getEnvRaw("SCHEDULE_AMORTIZATION", s.Amortization)
	s.Backup = getEnvRaw("SCHEDULE_BACKUP", s.Backup)

	b := &c.Backup
	b.Endpoint = getEnv("BACKUP_ENDPOINT", b.Endpoint)
	b.Region = getEnv("BACKUP_REGION", b.Region)
	b.Bucket = getEnv("BACKUP_BUCKET", b.Bucket)
	b.AccessKeyID = getEnv("BACKUP_ACCESS_KEY_ID", b.AccessKeyID)
	b.SecretAccessKey = getEnv("BACKUP_SECRET_ACCESS_KEY", b.SecretAccessKey)
	b.RetentionDays = getEnvAsInt("BACKUP_RETENTION_DAYS", b.RetentionDays)
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.PriceRefreshWorkers < 1 {
		return fmt.Errorf("PRICE_REFRESH_WORKERS must be at least 1, got %d", c.PriceRefreshWorkers)
	}
	if c.Providers.YahooMaxAttempts < 1 {
		return fmt.Errorf("YAHOO_MAX_ATTEMPTS must be at least 1, got %d", c.Providers.YahooMaxAttempts)
	}
	if c.Providers.YahooMinInterval < 0 || c.Providers.TwelveDataMinInterval < 0 {
		return fmt.Errorf("provider intervals must not be negative")
	}
	if c.Backup.Enabled() {
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("BACKUP_BUCKET is set but backup credentials are missing")
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
		}
	}
	return nil
}

// Helper functions

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw distinguishes an explicitly empty variable (which disables a schedule)
// from an unset one.
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
