// Package app wires configuration, storage, clients and services together.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/optifolio/internal/clients/optimizer"
	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/services/portfolio"
	"github.com/bobmcallan/optifolio/internal/services/rebalance"
	"github.com/bobmcallan/optifolio/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	OptimizerClient  interfaces.OptimizerClient
	PortfolioService interfaces.PortfolioService
	RebalanceService interfaces.RebalanceService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, OPTIFOLIO_CONFIG, the binary
// directory, then the development fallback.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("OPTIFOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "optifolio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/optifolio.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes everything from it.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(config)
}

// NewAppWithConfig initializes storage, clients and services from config.
func NewAppWithConfig(config *common.Config) (*App, error) {
	startupStart := time.Now()

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var optimizerClient interfaces.OptimizerClient
	if config.Rebalance.Policy == common.PolicyOptimizer {
		optimizerClient = optimizer.NewClient(
			optimizer.WithBaseURL(config.Clients.Optimizer.BaseURL),
			optimizer.WithLogger(logger),
			optimizer.WithRateLimit(config.Clients.Optimizer.RateLimit),
			optimizer.WithTimeout(config.Clients.Optimizer.GetTimeout()),
		)
	}

	policy, err := rebalance.NewPolicy(config.Rebalance, optimizerClient, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize rebalance policy: %w", err)
	}

	valuer := portfolio.NewValuer(config.Valuation, portfolio.NewSource(config.Valuation.RandomSeed))

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		OptimizerClient:  optimizerClient,
		PortfolioService: portfolio.NewService(storageManager, valuer, logger),
		RebalanceService: rebalance.NewService(storageManager, policy, logger),
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("storage", storageManager.Backend()).
		Str("policy", policy.Name()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases storage.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
