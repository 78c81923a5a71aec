// Package interfaces defines service contracts for OptiFolio
package interfaces

import (
	"context"

	"github.com/bobmcallan/optifolio/internal/models"
)

// StorageManager coordinates the storage backend
type StorageManager interface {
	PortfolioStore() PortfolioStore

	// Backend returns the configured backend name ("sqlite", "surrealdb").
	Backend() string

	// Lifecycle
	Close() error
}

// PortfolioStore persists one portfolio document per user.
type PortfolioStore interface {
	// GetPortfolio returns the user's portfolio or an error wrapping common.ErrNotFound.
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)

	// ReplacePositions replaces the position list wholesale, creating the
	// document on first use. Last write wins.
	ReplacePositions(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error)

	// SavePositions writes the position list only if the stored version still
	// equals expectedVersion; otherwise it returns an error wrapping common.ErrConflict.
	SavePositions(ctx context.Context, userID string, positions []models.Position, expectedVersion int) (*models.Portfolio, error)

	// SavePerformanceHistory stores real performance series for the user.
	SavePerformanceHistory(ctx context.Context, userID string, history map[string][]float64) (*models.Portfolio, error)
}
