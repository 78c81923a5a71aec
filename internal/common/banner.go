package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner to stderr and logs the same facts.
func PrintBanner(config *Config, logger *Logger) {
	printBanner(os.Stderr, config)

	logger.Info().
		Str("version", GetVersion()).
		Str("commit", GetGitCommit()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Str("policy", config.Rebalance.Policy).
		Msg("Application started")
}

func printBanner(w io.Writer, config *Config) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  OPTIFOLIO  Portfolio valuation & rebalancing%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	rows := [][2]string{
		{"Version", GetFullVersion()},
		{"Environment", config.Environment},
		{"Listen", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)},
		{"Storage", config.Storage.Backend},
		{"Rebalance", config.Rebalance.Policy},
	}
	if config.Rebalance.Policy == PolicyOptimizer {
		rows = append(rows, [2]string{"Optimizer", config.Clients.Optimizer.BaseURL})
	}
	for _, kv := range rows {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)
}

// PrintShutdownBanner displays the shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 36) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  OPTIFOLIO  SHUTTING DOWN%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)
	logger.Info().Msg("Application shutting down")
}
