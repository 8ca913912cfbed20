// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSecretKey = "your-secret-key"
	DefaultTokenTTL  = 30 * time.Minute

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// rawConfig mirrors the environment one to one; Load normalises it into Config.
type rawConfig struct {
	SecretKey        string        `env:"SECRET_KEY" envDefault:"your-secret-key"`
	TokenTTLMinutes  string        `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	AppEnv           string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8000"`
	StoreDriver      string        `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	SQLitePath       string        `env:"SQLITE_PATH" envDefault:"local.db"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	CounterCacheTTL  time.Duration `env:"COUNTER_CACHE_TTL" envDefault:"5s"`
	WorkerCount      int           `env:"WORKER_COUNT" envDefault:"4"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`
	CORSAllowOrigins []string      `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"text"`
}

// Config is the validated service configuration.
type Config struct {
	SecretKey        string
	TokenTTL         time.Duration
	AppEnv           string
	HTTPAddr         string
	StoreDriver      string
	DatabaseURL      string
	SQLitePath       string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CounterCacheTTL  time.Duration
	WorkerCount      int
	BcryptCost       int
	CORSAllowOrigins []string
	LogLevel         slog.Level
	LogFormat        string

	// Warnings lists settings that were corrected; logged once the logger exists.
	Warnings []string
}

// Production reports whether APP_ENV selects the production profile.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return raw.normalise()
}

func (r rawConfig) normalise() (*Config, error) {
	cfg := &Config{
		SecretKey:       r.SecretKey,
		AppEnv:          strings.TrimSpace(r.AppEnv),
		HTTPAddr:        r.HTTPAddr,
		StoreDriver:     strings.ToLower(strings.TrimSpace(r.StoreDriver)),
		DatabaseURL:     r.DatabaseURL,
		SQLitePath:      r.SQLitePath,
		RedisAddr:       strings.TrimSpace(r.RedisAddr),
		RedisPassword:   r.RedisPassword,
		RedisDB:         r.RedisDB,
		CounterCacheTTL: r.CounterCacheTTL,
		WorkerCount:     r.WorkerCount,
		BcryptCost:      r.BcryptCost,
		LogFormat:       strings.ToLower(strings.TrimSpace(r.LogFormat)),
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(r.TokenTTLMinutes))
	if err != nil || minutes <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid ACCESS_TOKEN_EXPIRE_MINUTES %q, using %d", r.TokenTTLMinutes, int(DefaultTokenTTL.Minutes())))
	} else {
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}

	for _, o := range r.CORSAllowOrigins {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(r.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", r.LogLevel, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch {
	case c.SecretKey == "":
		errs = append(errs, errors.New("SECRET_KEY must not be empty"))
	case c.Production() && c.SecretKey == DefaultSecretKey:
		errs = append(errs, errors.New("SECRET_KEY must be changed in production"))
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must not be empty"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.CounterCacheTTL <= 0 {
		errs = append(errs, errors.New("COUNTER_CACHE_TTL must be positive"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
