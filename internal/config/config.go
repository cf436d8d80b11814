// Package config loads server settings from environment variables and an optional
// config.yaml file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all server configuration values.
type Config struct {
	Port        string        `mapstructure:"PORT"`
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	Env         string        `mapstructure:"ENV"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	Migrate     bool          `mapstructure:"MIGRATE"`

	// Redis is optional: an empty address disables the catalog cache and login limiter.
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	LoginMaxFails int           `mapstructure:"LOGIN_MAX_FAILS"`
	LoginWindow   time.Duration `mapstructure:"LOGIN_WINDOW"`
	LoginBlockFor time.Duration `mapstructure:"LOGIN_BLOCK_FOR"`

	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string { return ":" + c.Port }

// IsDevelopment reports whether ENV selects development logging.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ENV", "production")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", time.Hour)
	v.SetDefault("MIGRATE", true)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_CACHE_TTL", 5*time.Minute)
	v.SetDefault("LOGIN_MAX_FAILS", 5)
	v.SetDefault("LOGIN_WINDOW", 15*time.Minute)
	v.SetDefault("LOGIN_BLOCK_FOR", 15*time.Minute)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CORS_ORIGINS", []string{"*"})
}

// Load reads configuration. With an empty path, config.yaml is looked up in the working
// directory and ./config and silently skipped when absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	return nil
}
