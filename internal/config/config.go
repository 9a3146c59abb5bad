package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AnalyticsConfig tunes the analytics engine. AttributionFile replaces the
// embedded muscle attribution table when set.
type AnalyticsConfig struct {
	AttributionFile string        `yaml:"attribution_file"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheSizeMB     int           `yaml:"cache_size_mb"`
	DefaultMode     string        `yaml:"default_mode"`
	TrendMode       string        `yaml:"trend_mode"`
	Trend           trend.Config  `yaml:"trend"`
}

type ImportConfig struct {
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel parses the configured level; an empty level is info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Mode returns the default volume view mode.
func (a AnalyticsConfig) Mode() volume.Mode {
	m, _ := volume.ParseMode(a.DefaultMode)
	return m
}

// TrendModeOrDefault returns the default trend classification mode.
func (a AnalyticsConfig) TrendModeOrDefault() trend.Mode {
	m, _ := trend.ParseMode(a.TrendMode)
	return m
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix LIFTMAP_ and underscore-separated paths:
//
//	LIFTMAP_SERVER_HOST, LIFTMAP_SERVER_PORT,
//	LIFTMAP_DB_HOST, LIFTMAP_DB_PORT, LIFTMAP_DB_NAME,
//	LIFTMAP_DB_USER, LIFTMAP_DB_PASSWORD, LIFTMAP_DB_SSLMODE,
//	LIFTMAP_AUTH_API_KEY,
//	LIFTMAP_TAILSCALE_ENABLED, LIFTMAP_TAILSCALE_HOSTNAME, LIFTMAP_TAILSCALE_STATE_DIR,
//	LIFTMAP_LOG_LEVEL,
//	LIFTMAP_ANALYTICS_ATTRIBUTION_FILE, LIFTMAP_ANALYTICS_CACHE_TTL,
//	LIFTMAP_ANALYTICS_CACHE_SIZE_MB, LIFTMAP_ANALYTICS_DEFAULT_MODE,
//	LIFTMAP_IMPORT_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("LIFTMAP_SERVER_HOST", &cfg.Server.Host)
	setInt("LIFTMAP_SERVER_PORT", &cfg.Server.Port)
	setString("LIFTMAP_DB_HOST", &cfg.Database.Host)
	setInt("LIFTMAP_DB_PORT", &cfg.Database.Port)
	setString("LIFTMAP_DB_NAME", &cfg.Database.Name)
	setString("LIFTMAP_DB_USER", &cfg.Database.User)
	setString("LIFTMAP_DB_PASSWORD", &cfg.Database.Password)
	setString("LIFTMAP_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("LIFTMAP_AUTH_API_KEY", &cfg.Auth.APIKey)
	if v := os.Getenv("LIFTMAP_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("LIFTMAP_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	setString("LIFTMAP_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)
	setString("LIFTMAP_LOG_LEVEL", &cfg.Log.Level)
	setString("LIFTMAP_ANALYTICS_ATTRIBUTION_FILE", &cfg.Analytics.AttributionFile)
	if v := os.Getenv("LIFTMAP_ANALYTICS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analytics.CacheTTL = d
		}
	}
	setInt("LIFTMAP_ANALYTICS_CACHE_SIZE_MB", &cfg.Analytics.CacheSizeMB)
	setString("LIFTMAP_ANALYTICS_DEFAULT_MODE", &cfg.Analytics.DefaultMode)
	setString("LIFTMAP_IMPORT_STATE_DIR", &cfg.Import.StateDir)
}

func applyDefaults(cfg *Config) {
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "liftmap"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "tsnet-state"
	}
	if cfg.Analytics.CacheTTL == 0 {
		cfg.Analytics.CacheTTL = 10 * time.Minute
	}
	if cfg.Analytics.CacheSizeMB == 0 {
		cfg.Analytics.CacheSizeMB = 64
	}
	if cfg.Import.StateDir == "" {
		cfg.Import.StateDir = ".liftmap-import"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if _, err := volume.ParseMode(c.Analytics.DefaultMode); err != nil {
		return fmt.Errorf("analytics.default_mode: %w", err)
	}
	if _, err := trend.ParseMode(c.Analytics.TrendMode); err != nil {
		return fmt.Errorf("analytics.trend_mode: %w", err)
	}
	if c.Analytics.CacheSizeMB < 0 {
		return fmt.Errorf("analytics.cache_size_mb must not be negative")
	}
	t := c.Analytics.Trend
	if t.MinSessions < 0 || t.PlateauWindow < 0 || t.StableWindow < 0 || t.ReactiveWindow < 0 {
		return fmt.Errorf("analytics.trend windows must not be negative")
	}
	return nil
}
