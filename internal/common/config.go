// Package common provides shared utilities for OptiFolio
package common

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for OptiFolio
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Valuation   ValuationConfig `toml:"valuation"`
	Rebalance   RebalanceConfig `toml:"rebalance"`
	Logging     LoggingConfig   `toml:"logging"`
	Auth        AuthConfig      `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Storage backends
const (
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
)

// StorageConfig selects and configures the portfolio document store.
type StorageConfig struct {
	Backend   string          `toml:"backend"` // "sqlite" or "surrealdb"
	SQLite    SQLiteConfig    `toml:"sqlite"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

// SQLiteConfig holds the embedded store location.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds SurrealDB connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Optimizer OptimizerConfig `toml:"optimizer"`
}

// OptimizerConfig holds the allocation optimizer service configuration
type OptimizerConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *OptimizerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// HorizonConfig describes one performance series: label, number of samples and
// the per-step volatility used when the series has to be synthesized.
type HorizonConfig struct {
	Label      string  `toml:"label"`
	Points     int     `toml:"points"`
	Volatility float64 `toml:"volatility"`
}

// ValuationConfig holds the valuation engine calibration.
type ValuationConfig struct {
	// RiskScale selects a calibration preset: 10 -> (0.8, 0.2, 10), 100 -> (8, 2, 100).
	RiskScale int `toml:"risk_scale"`
	// Explicit constants override the preset when non-zero.
	RiskChangeWeight     float64 `toml:"risk_change_weight"`
	RiskDispersionWeight float64 `toml:"risk_dispersion_weight"`
	RiskMax              float64 `toml:"risk_max"`

	DefaultBaseValue   float64         `toml:"default_base_value"`
	PlaceholderChanges bool            `toml:"placeholder_changes"`
	RandomSeed         int64           `toml:"random_seed"` // 0 = seeded from the clock
	Horizons           []HorizonConfig `toml:"horizons"`
}

// RiskCalibration returns (k1, k2, Rmax) for the risk score.
func (c *ValuationConfig) RiskCalibration() (float64, float64, float64) {
	k1, k2, rmax := 0.8, 0.2, 10.0
	if c.RiskScale == 100 {
		k1, k2, rmax = 8, 2, 100
	}
	if c.RiskChangeWeight != 0 {
		k1 = c.RiskChangeWeight
	}
	if c.RiskDispersionWeight != 0 {
		k2 = c.RiskDispersionWeight
	}
	if c.RiskMax != 0 {
		rmax = c.RiskMax
	}
	return k1, k2, rmax
}

// Rebalance policies
const (
	PolicyOptimizer = "optimizer"
	PolicyTarget    = "target"
)

// RebalanceConfig selects the recommendation source for this deployment.
type RebalanceConfig struct {
	Policy     string  `toml:"policy"`      // "optimizer" or "target"
	FuzzyMatch bool    `toml:"fuzzy_match"` // substring fallback when reconciling optimizer symbols
	Tolerance  float64 `toml:"tolerance"`   // band half-width in percentage points (target policy)
}

// AuthConfig holds JWT validation settings. Tokens are issued elsewhere.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// DefaultHorizons returns the standard performance horizons.
func DefaultHorizons() []HorizonConfig {
	return []HorizonConfig{
		{Label: "1D", Points: 6, Volatility: 0.001},
		{Label: "1W", Points: 7, Volatility: 0.004},
		{Label: "1M", Points: 30, Volatility: 0.006},
		{Label: "3M", Points: 13, Volatility: 0.01},
		{Label: "6M", Points: 26, Volatility: 0.012},
		{Label: "1Y", Points: 52, Volatility: 0.015},
	}
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			SQLite:  SQLiteConfig{Path: "data/optifolio.db"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Namespace: "optifolio",
				Database:  "optifolio",
				Username:  "root",
				Password:  "root",
			},
		},
		Clients: ClientsConfig{
			Optimizer: OptimizerConfig{
				BaseURL:   "http://localhost:8001",
				RateLimit: 5,
				Timeout:   "5s",
			},
		},
		Valuation: ValuationConfig{
			RiskScale:          10,
			DefaultBaseValue:   10000,
			PlaceholderChanges: true,
			Horizons:           DefaultHorizons(),
		},
		Rebalance: RebalanceConfig{
			Policy:     PolicyOptimizer,
			FuzzyMatch: true,
			Tolerance:  2,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first if present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Later files override earlier
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("OPTIFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("OPTIFOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is honoured for PaaS deployments
	for _, key := range []string{"PORT", "OPTIFOLIO_PORT"} {
		if port := os.Getenv(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if level := os.Getenv("OPTIFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("OPTIFOLIO_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("OPTIFOLIO_SQLITE_PATH"); v != "" {
		config.Storage.SQLite.Path = v
	}
	if v := os.Getenv("OPTIFOLIO_SURREALDB_ADDRESS"); v != "" {
		config.Storage.SurrealDB.Address = v
	}
	if v := os.Getenv("OPTIFOLIO_SURREALDB_USERNAME"); v != "" {
		config.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("OPTIFOLIO_SURREALDB_PASSWORD"); v != "" {
		config.Storage.SurrealDB.Password = v
	}

	// RL_SERVICE_URL is the name the optimizer deployment exports
	for _, key := range []string{"RL_SERVICE_URL", "OPTIFOLIO_OPTIMIZER_URL"} {
		if v := os.Getenv(key); v != "" {
			config.Clients.Optimizer.BaseURL = v
		}
	}

	if v := os.Getenv("OPTIFOLIO_REBALANCE_POLICY"); v != "" {
		config.Rebalance.Policy = strings.ToLower(v)
	}

	for _, key := range []string{"JWT_SECRET", "OPTIFOLIO_JWT_SECRET"} {
		if v := os.Getenv(key); v != "" {
			config.Auth.JWTSecret = v
		}
	}
}

// Validate checks every named field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path: required"))
		}
	case BackendSurrealDB:
		if c.Storage.SurrealDB.Address == "" {
			errs = append(errs, errors.New("storage.surrealdb.address: required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}

	k1, k2, rmax := c.Valuation.RiskCalibration()
	if c.Valuation.RiskScale != 10 && c.Valuation.RiskScale != 100 {
		errs = append(errs, fmt.Errorf("valuation.risk_scale: must be 10 or 100, got %d", c.Valuation.RiskScale))
	}
	if k1 < 0 || k2 < 0 {
		errs = append(errs, errors.New("valuation.risk_change_weight/risk_dispersion_weight: must not be negative"))
	}
	if rmax <= 0 {
		errs = append(errs, errors.New("valuation.risk_max: must be positive"))
	}
	if c.Valuation.DefaultBaseValue <= 0 {
		errs = append(errs, errors.New("valuation.default_base_value: must be positive"))
	}
	if len(c.Valuation.Horizons) == 0 {
		errs = append(errs, errors.New("valuation.horizons: at least one horizon required"))
	}
	seen := make(map[string]bool)
	for i, h := range c.Valuation.Horizons {
		if h.Label == "" {
			errs = append(errs, fmt.Errorf("valuation.horizons[%d].label: required", i))
		} else if seen[h.Label] {
			errs = append(errs, fmt.Errorf("valuation.horizons[%d].label: duplicate %q", i, h.Label))
		}
		seen[h.Label] = true
		if h.Points <= 0 {
			errs = append(errs, fmt.Errorf("valuation.horizons[%d].points: must be positive", i))
		}
		if h.Volatility < 0 {
			errs = append(errs, fmt.Errorf("valuation.horizons[%d].volatility: must not be negative", i))
		}
	}

	switch c.Rebalance.Policy {
	case PolicyOptimizer:
		if _, err := url.ParseRequestURI(c.Clients.Optimizer.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("clients.optimizer.base_url: %w", err))
		}
	case PolicyTarget:
		if c.Rebalance.Tolerance < 0 {
			errs = append(errs, errors.New("rebalance.tolerance: must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("rebalance.policy: unknown policy %q", c.Rebalance.Policy))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret: required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
