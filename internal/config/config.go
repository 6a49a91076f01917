package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const appName = "threadreader"

// Read-state backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Pages     []string        `toml:"pages"`
	Scraping  ScrapingConfig  `toml:"scraping"`
	ReadState ReadStateConfig `toml:"read_state"`
	Report    ReportConfig    `toml:"report"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Email     EmailConfig     `toml:"email"`
	Log       LogConfig       `toml:"log"`
}

type ScrapingConfig struct {
	Headless           bool   `toml:"headless"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	AcceptLanguage     string `toml:"accept_language"`
	MaxConcurrentPages int    `toml:"max_concurrent_pages"`
	MaxContentLength   int    `toml:"max_content_length"`
}

type ReadStateConfig struct {
	Backend           string `toml:"backend"`
	StorageKey        string `toml:"storage_key"`
	DatabasePath      string `toml:"database_path"` // empty means <data dir>/threadreader.db
	RedisURL          string `toml:"redis_url"`
	MarkReadOnAnalyze bool   `toml:"mark_read_on_analyze"`
}

type ReportConfig struct {
	MaxThreads      int  `toml:"max_threads"`
	OpenAfterBuild  bool `toml:"open_after_build"`
	IncludeComments bool `toml:"include_comments"`
}

type ScheduleConfig struct {
	Enabled       bool   `toml:"enabled"`
	IntervalHours int    `toml:"interval_hours"`
	Timezone      string `toml:"timezone"`
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Pages: []string{},
		Scraping: ScrapingConfig{
			Headless:           true,
			TimeoutSeconds:     120,
			AcceptLanguage:     "pl-PL,pl;q=0.9,en;q=0.8",
			MaxConcurrentPages: 2,
			MaxContentLength:   500,
		},
		ReadState: ReadStateConfig{
			Backend:           BackendSQLite,
			StorageKey:        "ekskursje_read_comments",
			MarkReadOnAnalyze: true,
		},
		Report: ReportConfig{
			MaxThreads:      50,
			OpenAfterBuild:  false,
			IncludeComments: true,
		},
		Schedule: ScheduleConfig{
			Enabled:       false,
			IntervalHours: 2,
			Timezone:      "Europe/Warsaw",
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// OpenTarget resolves a user-facing name ("config" or "cache") to the path
// it refers to. The cache directory is created so it can be opened on a
// fresh install.
func OpenTarget(name string) (string, error) {
	switch name {
	case "config":
		return ConfigPath()
	case "cache":
		dir, err := CacheDir()
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", err
		}
		return dir, nil
	default:
		return "", fmt.Errorf("unknown target: %q (want config or cache)", name)
	}
}

// DatabasePath returns the SQLite path, defaulting to the config directory
func (c *Config) DatabasePath() (string, error) {
	if c.ReadState.DatabasePath != "" {
		return c.ReadState.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".db"), nil
}

// Load reads config from the default path
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. Keys missing from the file keep their
// default values, and environment overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides secrets and deployment settings from the environment
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("THREADREADER_REDIS_URL")); v != "" {
		c.ReadState.RedisURL = v
	}
	if v := os.Getenv("THREADREADER_SMTP_PASS"); v != "" {
		c.Email.SMTPPass = v
	}
	if v := strings.TrimSpace(os.Getenv("THREADREADER_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
