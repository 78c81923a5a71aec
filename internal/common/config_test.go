package common

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, PolicyOptimizer, cfg.Rebalance.Policy)
	assert.True(t, cfg.Rebalance.FuzzyMatch)
	assert.Len(t, cfg.Valuation.Horizons, 6)
	assert.Equal(t, 5*time.Second, cfg.Clients.Optimizer.GetTimeout())
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("OPTIFOLIO_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_OptimizerURLEnvOverride(t *testing.T) {
	t.Setenv("RL_SERVICE_URL", "http://rl:9000")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "http://rl:9000", cfg.Clients.Optimizer.BaseURL)
}

func TestConfig_GetTimeout_Fallback(t *testing.T) {
	c := OptimizerConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 5*time.Second, c.GetTimeout())

	c.Timeout = "1500ms"
	assert.Equal(t, 1500*time.Millisecond, c.GetTimeout())
}

func TestConfig_RiskCalibration(t *testing.T) {
	tests := []struct {
		name         string
		cfg          ValuationConfig
		k1, k2, rmax float64
	}{
		{"ten scale", ValuationConfig{RiskScale: 10}, 0.8, 0.2, 10},
		{"hundred scale", ValuationConfig{RiskScale: 100}, 8, 2, 100},
		{"explicit override", ValuationConfig{RiskScale: 10, RiskChangeWeight: 1, RiskMax: 5}, 1, 0.2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1, k2, rmax := tt.cfg.RiskCalibration()
			assert.Equal(t, tt.k1, k1)
			assert.Equal(t, tt.k2, k2)
			assert.Equal(t, tt.rmax, rmax)
		})
	}
}

func TestConfig_Validate_ReportsNamedFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "mongo"
	cfg.Rebalance.Policy = "both"
	cfg.Valuation.RiskScale = 7
	cfg.Valuation.Horizons = []HorizonConfig{{Label: "1D", Points: 0}, {Label: "1D", Points: 3}}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "storage.backend")
	assert.Contains(t, msg, "rebalance.policy")
	assert.Contains(t, msg, "valuation.risk_scale")
	assert.Contains(t, msg, "valuation.horizons[0].points")
	assert.Contains(t, msg, "duplicate")
}

func TestConfig_Validate_OptimizerURLRequiredForOptimizerPolicy(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Clients.Optimizer.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.Rebalance.Policy = PolicyTarget
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optifolio.toml")
	content := `
environment = "production"

[storage]
backend = "sqlite"

[storage.sqlite]
path = "/tmp/o.db"

[rebalance]
policy = "target"
tolerance = 5

[valuation]
risk_scale = 100

[[valuation.horizons]]
label = "1M"
points = 4
volatility = 0.01
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/tmp/o.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, PolicyTarget, cfg.Rebalance.Policy)
	assert.Equal(t, 5.0, cfg.Rebalance.Tolerance)
	require.Len(t, cfg.Valuation.Horizons, 1)
	assert.Equal(t, "1M", cfg.Valuation.Horizons[0].Label)
	_, _, rmax := cfg.Valuation.RiskCalibration()
	assert.Equal(t, 100.0, rmax)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 0.0, Round2(math.NaN()))
	assert.Equal(t, 0.0, Round2(math.Inf(1)))
}
