package interfaces

import (
	"context"

	"github.com/bobmcallan/optifolio/internal/models"
)

// PortfolioService values stored positions and manages the holdings document.
type PortfolioService interface {
	// GetSnapshot values the user's positions. Never fails for a missing portfolio.
	GetSnapshot(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)

	// GetPortfolio returns the stored document, or an error wrapping common.ErrNotFound.
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)

	// UpsertHoldings replaces the user's positions after identity backfill.
	UpsertHoldings(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error)

	// SaveHistory stores real performance history, which then replaces synthesis.
	SaveHistory(ctx context.Context, userID string, history map[string][]float64) error

	// RenderChart renders one horizon of the snapshot's performance history as PNG.
	RenderChart(ctx context.Context, userID, horizon string) ([]byte, error)
}

// RebalanceService computes and applies rebalancing actions.
type RebalanceService interface {
	// Policy returns the recommendation source active for this deployment.
	Policy() string

	// Recommend computes recommendations; never returns a partial list.
	Recommend(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error)

	// Apply mutates stored quantities for the confirmed actions.
	Apply(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error)
}
