// Package config loads and validates the process configuration for the
// sync core: server bind address, storage connection strings, upstream
// provider settings, and the defaults the admission and sync
// subsystems fall back to when an admin hasn't overridden them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration tree, loaded from a YAML file and
// then overridden field-by-field from environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Prayer   PrayerConfig   `yaml:"prayer"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the admin API's HTTP listener.
type ServerConfig struct {
	BindAddr        string        `yaml:"bindAddr"`
	MetricsAddr     string        `yaml:"metricsAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// PostgresConfig configures the persistence gateway (C1).
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	BulkChunkSize   int    `yaml:"bulkChunkSize"`
}

// RedisConfig configures the counters the admission pipeline (C3) uses
// for rate limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig configures the auth substrate (C4).
type AuthConfig struct {
	TokenSigningSecret string        `yaml:"tokenSigningSecret"`
	BcryptCost         int           `yaml:"bcryptCost"`
	AccessTokenTTL     time.Duration `yaml:"accessTokenTtl"`
	RefreshTokenTTL    time.Duration `yaml:"refreshTokenTtl"`
}

// SyncConfig configures the sync engine (C5) and job control plane (C7)
// defaults.
type SyncConfig struct {
	MinSyncInterval     time.Duration     `yaml:"minSyncInterval"`
	TranslationLangs    []string          `yaml:"translationLangs"`
	TranslationFallback map[string]string `yaml:"translationFallback"`
	ChapterCount        int               `yaml:"chapterCount"`
	HadithCollections   []string          `yaml:"hadithCollections"`
	GoldMarket          string            `yaml:"goldMarket"`
}

// PrayerConfig configures the prayer-times fan-out planner (C6).
type PrayerConfig struct {
	MaxConcurrency   int           `yaml:"maxConcurrency"`
	PolitenessDelay  time.Duration `yaml:"politenessDelay"`
	MaxDateRangeDays int           `yaml:"maxDateRangeDays"`
}

// UpstreamConfig configures the HTTP client (C2) shared by every
// provider adapter.
type UpstreamConfig struct {
	DefaultTimeout  time.Duration       `yaml:"defaultTimeout"`
	SyncTimeout     time.Duration       `yaml:"syncTimeout"`
	UserAgent       string              `yaml:"userAgent"`
	MaxRetryAttempts int                `yaml:"maxRetryAttempts"`
	RetryBackoff    time.Duration       `yaml:"retryBackoff"`
	Providers       map[string]Provider `yaml:"providers"`
}

// Provider is one upstream content provider's base URL and
// credentials reference.
type Provider struct {
	BaseURL       string `yaml:"baseUrl"`
	APIKeyEnv     string `yaml:"apiKeyEnv"`
}

// LogConfig configures pkg/log.
type LogConfig struct {
	Level      string `yaml:"level"`
	JSONOutput bool   `yaml:"jsonOutput"`
}

// Default returns a Config populated with the built-in defaults that
// Load starts from before applying the YAML file and environment
// overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddr:        "0.0.0.0:8080",
			MetricsAddr:     "127.0.0.1:9090",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:  20,
			MaxIdleConns:  5,
			BulkChunkSize: 500,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Auth: AuthConfig{
			BcryptCost:      12,
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Sync: SyncConfig{
			MinSyncInterval:   24 * time.Hour,
			TranslationLangs:  []string{"en"},
			ChapterCount:      114,
			HadithCollections: []string{"bukhari", "muslim"},
			GoldMarket:        "global",
		},
		Prayer: PrayerConfig{
			MaxConcurrency:   2,
			PolitenessDelay:  150 * time.Millisecond,
			MaxDateRangeDays: 365,
		},
		Upstream: UpstreamConfig{
			DefaultTimeout:   15 * time.Second,
			SyncTimeout:      300 * time.Second,
			UserAgent:        "deenmate-sync-core/1.0",
			MaxRetryAttempts: 3,
			RetryBackoff:     500 * time.Millisecond,
			Providers: map[string]Provider{
				"quran":  {BaseURL: "https://api.quran.com/api/v4"},
				"hadith": {BaseURL: "https://api.sunnah.com/v1", APIKeyEnv: "SYNC_CORE_SUNNAH_API_KEY"},
				"audio":  {BaseURL: "https://api.quran.com/api/v4"},
				"gold":   {BaseURL: "https://api.metals.live/v1"},
				"zakat":  {BaseURL: "https://api.metals.live/v1"},
				"prayer": {BaseURL: "https://api.aladhan.com/v1"},
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, if path is non-empty, over top of
// Default(), then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SYNC_CORE_BIND_ADDR"); v != "" {
		cfg.Server.BindAddr = v
	}
	if v := os.Getenv("SYNC_CORE_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SYNC_CORE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SYNC_CORE_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSigningSecret = v
	}
	if v := os.Getenv("SYNC_CORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects a configuration that would leave the process unable
// to start safely.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.Auth.TokenSigningSecret == "" {
		return fmt.Errorf("auth.tokenSigningSecret is required")
	}
	if len(c.Auth.TokenSigningSecret) < 32 {
		return fmt.Errorf("auth.tokenSigningSecret must be at least 32 bytes")
	}
	if c.Auth.BcryptCost < 10 {
		return fmt.Errorf("auth.bcryptCost must be at least 10")
	}
	if c.Postgres.BulkChunkSize <= 0 {
		return fmt.Errorf("postgres.bulkChunkSize must be positive")
	}
	if c.Prayer.MaxDateRangeDays <= 0 || c.Prayer.MaxDateRangeDays > 365 {
		return fmt.Errorf("prayer.maxDateRangeDays must be in [1,365]")
	}
	return nil
}
