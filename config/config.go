package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Analysis  AnalysisConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProviderConfig selects and configures the analysis provider
type ProviderConfig struct {
	Type          string  `mapstructure:"type"` // "stub" or "http"
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	MaxRetries    int     `mapstructure:"max_retries"`
}

// AnalysisConfig holds provider call settings
type AnalysisConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MinQueryLength int           `mapstructure:"min_query_length"`
}

// CatalogConfig holds seed catalog settings
type CatalogConfig struct {
	SeedFile    string `mapstructure:"seed_file"` // empty uses the built-in catalog
	AugmentMode string `mapstructure:"augment_mode"`
}

// CacheConfig holds search cache configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// SessionConfig holds discovery session lifecycle settings
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ecofinder/")

	// Environment variable settings, e.g. ECOFINDER_SERVER_PORT
	v.SetEnvPrefix("ECOFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env if present. Variables already set in the
// environment are left untouched.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("server.shutdown_timeout", "30s")

	// Provider defaults
	v.SetDefault("provider.type", "stub")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_per_second", 5)
	v.SetDefault("provider.burst", 10)
	v.SetDefault("provider.max_retries", 3)

	// Analysis defaults
	v.SetDefault("analysis.timeout", "10s")
	v.SetDefault("analysis.min_query_length", 3)

	// Catalog defaults
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.augment_mode", "append")

	// Cache defaults
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanup_interval", "1m")

	// Session defaults
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.sweep_interval", "1m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Provider.Type {
	case "stub":
	case "http":
		if config.Provider.BaseURL == "" {
			return fmt.Errorf("provider base URL is required when provider type is 'http' (set ECOFINDER_PROVIDER_BASE_URL)")
		}
	default:
		return fmt.Errorf("provider type must be 'stub' or 'http', got: %s", config.Provider.Type)
	}

	if config.Catalog.AugmentMode != "append" && config.Catalog.AugmentMode != "merge" {
		return fmt.Errorf("catalog augment mode must be 'append' or 'merge', got: %s", config.Catalog.AugmentMode)
	}

	if config.Analysis.MinQueryLength < 1 {
		return fmt.Errorf("analysis min query length must be at least 1, got: %d", config.Analysis.MinQueryLength)
	}
	if config.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis timeout must not be negative, got: %s", config.Analysis.Timeout)
	}

	if config.Cache.TTL <= 0 || config.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache TTL and cleanup interval must be positive")
	}
	if config.Session.IdleTimeout <= 0 || config.Session.SweepInterval <= 0 {
		return fmt.Errorf("session idle timeout and sweep interval must be positive")
	}

	if config.RateLimit.PerIP < 1 {
		return fmt.Errorf("per-IP rate limit must be at least 1, got: %d", config.RateLimit.PerIP)
	}

	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
