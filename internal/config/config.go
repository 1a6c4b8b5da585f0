// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 10s
}

// DBConfig holds SQLite persistence settings. The ledger's entire state lives
// in a single local database file, rehydrated at process start.
type DBConfig struct {
	Path         string // path to the sqlite file, default "tokenizee.db"
	MaxOpenConns int    // default 1 (sqlite serialises writers anyway)
}

// SessionConfig holds wallet session token settings.
type SessionConfig struct {
	Secret string        // JWT signing secret; must be set in production
	TTL    time.Duration // default 24h
}

// PricingConfig holds the price-formation knobs. Defaults match the token
// economy: 0.01 floor, +5 % per bid, +0.001 per like.
type PricingConfig struct {
	BidStepPercent   float64 // per-bid growth on the bid curve, default 5
	PerLikeIncrement float64 // engagement floor per like, default 0.001
}

// LockConfig holds token lock-window settings.
type LockConfig struct {
	Window time.Duration // holding lock after acquisition, default 24h
}

// DriftConfig holds periodic price drift settings for open bidding views.
type DriftConfig struct {
	Interval    time.Duration // tick interval, default 10s
	StepPercent float64       // per-tick increase, default 0.1
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Session SessionConfig
	Pricing PricingConfig
	Lock    LockConfig
	Drift   DriftConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProd() && c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.Pricing.BidStepPercent <= 0 {
		errs = append(errs, fmt.Errorf(
			"PRICING_BID_STEP_PERCENT must be positive, got %.4f", c.Pricing.BidStepPercent))
	}
	if c.Pricing.PerLikeIncrement < 0 {
		errs = append(errs, fmt.Errorf(
			"PRICING_PER_LIKE_INCREMENT must not be negative, got %.4f", c.Pricing.PerLikeIncrement))
	}
	if c.Lock.Window <= 0 {
		errs = append(errs, errors.New("LOCK_WINDOW must be positive"))
	}
	if c.Drift.Interval <= 0 {
		errs = append(errs, errors.New("DRIFT_INTERVAL must be positive"))
	}
	if c.Drift.StepPercent <= 0 {
		errs = append(errs, fmt.Errorf(
			"DRIFT_STEP_PERCENT must be positive, got %.4f", c.Drift.StepPercent))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.DB = DBConfig{
		Path:         getEnv("DB_PATH", "tokenizee.db"),
		MaxOpenConns: maxOpen,
	}

	// ── Session ───────────────────────────────────────────────────────────────
	cfg.Session = SessionConfig{
		Secret: getEnv("SESSION_SECRET", "dev-session-secret"),
		TTL:    getDuration("SESSION_TTL", 24*time.Hour),
	}

	// ── Pricing ───────────────────────────────────────────────────────────────
	bidStep, err := getFloat("PRICING_BID_STEP_PERCENT", 5)
	if err != nil {
		return nil, fmt.Errorf("PRICING_BID_STEP_PERCENT: %w", err)
	}
	perLike, err := getFloat("PRICING_PER_LIKE_INCREMENT", 0.001)
	if err != nil {
		return nil, fmt.Errorf("PRICING_PER_LIKE_INCREMENT: %w", err)
	}
	cfg.Pricing = PricingConfig{
		BidStepPercent:   bidStep,
		PerLikeIncrement: perLike,
	}

	// ── Lock window ───────────────────────────────────────────────────────────
	cfg.Lock = LockConfig{
		Window: getDuration("LOCK_WINDOW", 24*time.Hour),
	}

	// ── Drift ─────────────────────────────────────────────────────────────────
	driftStep, err := getFloat("DRIFT_STEP_PERCENT", 0.1)
	if err != nil {
		return nil, fmt.Errorf("DRIFT_STEP_PERCENT: %w", err)
	}
	cfg.Drift = DriftConfig{
		Interval:    getDuration("DRIFT_INTERVAL", 10*time.Second),
		StepPercent: driftStep,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}
