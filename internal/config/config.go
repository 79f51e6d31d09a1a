// Package config provides YAML-based configuration loading for segdash.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvAPIURL   = "SEGDASH_API_URL"
	EnvDBPath   = "SEGDASH_DB_PATH"
	EnvLogLevel = "SEGDASH_LOG_LEVEL"
	EnvPort     = "SEGDASH_PORT"

	EnvArchiveAccessKey = "SEGDASH_ARCHIVE_ACCESS_KEY"
	EnvArchiveSecretKey = "SEGDASH_ARCHIVE_SECRET_KEY"
)

// Config is the top-level segdash configuration, loaded from segdash.yaml.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Upload    UploadConfig    `yaml:"upload"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig points at the remote analysis service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// RetryMax is nil when unset so an explicit 0 can disable retries.
	RetryMax *int `yaml:"retry_max"`
}

// Retries returns the configured GET retry count.
func (a APIConfig) Retries() int {
	if a.RetryMax == nil {
		return defaultRetryMax
	}
	return *a.RetryMax
}

const defaultRetryMax = 2

// SessionConfig controls where credentials are persisted and how they are
// kept fresh.
type SessionConfig struct {
	DBPath          string        `yaml:"db_path"`
	RefreshSchedule string        `yaml:"refresh_schedule"`
	RefreshSkew     time.Duration `yaml:"refresh_skew"`
	WatchInterval   time.Duration `yaml:"watch_interval"`
}

// DashboardConfig holds settings for the local web dashboard.
type DashboardConfig struct {
	Port     int           `yaml:"port"`
	FilesTTL time.Duration `yaml:"files_ttl"`
}

// UploadConfig holds settings for the upload workflow.
type UploadConfig struct {
	RedirectDelay   time.Duration `yaml:"redirect_delay"`
	DefaultClusters int           `yaml:"default_clusters"`
}

// ArchiveConfig points at optional S3-compatible storage that downloaded
// reports and exports are copied to. Archiving is off when Endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Bucket    string        `yaml:"bucket"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	UseSSL    bool          `yaml:"use_ssl"`
	Region    string        `yaml:"region"`
	Prefix    string        `yaml:"prefix"`
	LinkTTL   time.Duration `yaml:"link_ttl"`
}

// Enabled reports whether an archive endpoint is configured.
func (a ArchiveConfig) Enabled() bool { return a.Endpoint != "" }

// LogConfig configures the zap logger.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is not an error: defaults and environment overrides apply.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config, applying environment
// overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays values from the process environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Session.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvArchiveAccessKey); v != "" {
		c.Archive.AccessKey = v
	}
	if v := os.Getenv(EnvArchiveSecretKey); v != "" {
		c.Archive.SecretKey = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Dashboard.Port = p
		}
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 60 * time.Second
	}
	if c.API.RetryMax == nil {
		n := defaultRetryMax
		c.API.RetryMax = &n
	}
	if c.Session.DBPath == "" {
		c.Session.DBPath = "segdash.db"
	}
	if c.Session.RefreshSchedule == "" {
		c.Session.RefreshSchedule = "*/10 * * * *"
	}
	if c.Session.RefreshSkew == 0 {
		c.Session.RefreshSkew = 2 * time.Minute
	}
	if c.Session.WatchInterval == 0 {
		c.Session.WatchInterval = 2 * time.Second
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 3000
	}
	if c.Dashboard.FilesTTL == 0 {
		c.Dashboard.FilesTTL = 30 * time.Second
	}
	if c.Upload.RedirectDelay == 0 {
		c.Upload.RedirectDelay = 1500 * time.Millisecond
	}
	if c.Upload.DefaultClusters == 0 {
		c.Upload.DefaultClusters = 5
	}
	if c.Archive.Enabled() {
		if c.Archive.Bucket == "" {
			c.Archive.Bucket = "segdash"
		}
		if c.Archive.Region == "" {
			c.Archive.Region = "us-east-1"
		}
		if c.Archive.LinkTTL == 0 {
			c.Archive.LinkTTL = 7 * 24 * time.Hour
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// validate checks that all values are usable.
func (c *Config) validate() error {
	var errs []string
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, "api.timeout must not be negative")
	}
	if c.API.Retries() < 0 {
		errs = append(errs, "api.retry_max must not be negative")
	}
	if _, err := cron.ParseStandard(c.Session.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("session.refresh_schedule: %v", err))
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	if c.Upload.DefaultClusters < 2 || c.Upload.DefaultClusters > 10 {
		errs = append(errs, fmt.Sprintf("upload.default_clusters %d must be between 2 and 10", c.Upload.DefaultClusters))
	}
	if c.Archive.Enabled() {
		if strings.Contains(c.Archive.Endpoint, "://") {
			errs = append(errs, fmt.Sprintf("archive.endpoint %q must be host[:port] without a scheme", c.Archive.Endpoint))
		}
		if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
			errs = append(errs, "archive.access_key and archive.secret_key are required when archive.endpoint is set")
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
