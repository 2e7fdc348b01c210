package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ANIDEX_"

// Config holds configuration for the chat gateway service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Translate TranslateConfig `koanf:"translate"`
	Enrich    EnrichConfig    `koanf:"enrich"`
	Streaming StreamingConfig `koanf:"streaming"`
	Session   SessionConfig   `koanf:"session"`
	Auth      AuthConfig      `koanf:"auth"`
	Logging   LoggingConfig   `koanf:"logging"`
	Bot       BotConfig       `koanf:"bot"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// RateLimit is the number of interactions a single user may send per
	// minute. Zero disables the limit.
	RateLimit    int           `koanf:"rate_limit" validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	// DSN is a postgres:// URL or a sqlite file path (":memory:" for tests).
	DSN string `koanf:"dsn" validate:"required"`
}

type CatalogConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	BreakerFailures   uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown   time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

type TranslateConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url" validate:"required_if=Enabled true"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type EnrichConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url" validate:"required_if=Enabled true"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// CacheTTL keeps found entries, MissTTL remembers names with no entry.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	MissTTL  time.Duration `koanf:"miss_ttl" validate:"gt=0"`
}

type StreamingSite struct {
	Name      string `koanf:"name" validate:"required"`
	SlugURL   string `koanf:"slug_url" validate:"omitempty,contains=%s"`
	SearchURL string `koanf:"search_url" validate:"required,contains=%s"`
}

type StreamingConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// Sites overrides the built-in site list when set in the config file.
	Sites []StreamingSite `koanf:"sites" validate:"dive"`
}

type SessionConfig struct {
	// Dir is the badger directory. Empty keeps sessions in memory.
	Dir string        `koanf:"dir"`
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

type AuthConfig struct {
	// IssuerURL enables OIDC bearer verification of the transport bridge.
	IssuerURL string `koanf:"issuer_url" validate:"omitempty,url"`
	Audience  string `koanf:"audience" validate:"required_with=IssuerURL"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type BotConfig struct {
	// Username is matched against mentions in group chats, without the "@".
	Username      string `koanf:"username"`
	DefaultLocale string `koanf:"default_locale" validate:"required"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimit:    60,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{DSN: "anidex.db"},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.jikan.moe/v4",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 3,
			Burst:             3,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Translate: TranslateConfig{
			Enabled: true,
			BaseURL: "https://translate.googleapis.com",
			Timeout: 5 * time.Second,
		},
		Enrich: EnrichConfig{
			Enabled:  true,
			BaseURL:  "https://www.nautiljon.com",
			Timeout:  10 * time.Second,
			CacheTTL: 30 * 24 * time.Hour,
			MissTTL:  24 * time.Hour,
		},
		Streaming: StreamingConfig{Timeout: 5 * time.Second},
		Session:   SessionConfig{TTL: 6 * time.Hour},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Bot:       BotConfig{DefaultLocale: "fr"},
	}
}

// Load layers defaults, the optional YAML file at path and ANIDEX_*
// environment variables, in that order. Nested keys use a double underscore:
// ANIDEX_CATALOG__BASE_URL sets catalog.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
