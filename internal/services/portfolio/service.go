// Package portfolio provides portfolio valuation and holdings management
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

// DefaultPortfolioName is used when the first upload carries no name.
const DefaultPortfolioName = "Main Portfolio"

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	valuer  *Valuer
	logger  *common.Logger
}

// NewService creates a new portfolio service
func NewService(storage interfaces.StorageManager, valuer *Valuer, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		valuer:  valuer,
		logger:  logger,
	}
}

// GetPortfolio returns the stored document for the user.
func (s *Service) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	return s.storage.PortfolioStore().GetPortfolio(ctx, userID)
}

// GetSnapshot values the user's positions. A missing portfolio is not an
// error: it yields the empty snapshot.
func (s *Service) GetSnapshot(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return s.valuer.Empty(), nil
		}
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	snapshot := s.valuer.Value(p)

	s.logger.Debug().
		Str("user_id", userID).
		Int("holdings", len(snapshot.Holdings)).
		Float64("total_value", snapshot.TotalValue).
		Str("performance_source", snapshot.PerformanceSource).
		Msg("Portfolio valued")

	return snapshot, nil
}

// UpsertHoldings validates and backfills positions, then replaces the stored list.
func (s *Service) UpsertHoldings(ctx context.Context, userID string, meta models.PortfolioMeta, positions []models.Position) (*models.Portfolio, error) {
	for i, p := range positions {
		if err := validatePosition(p); err != nil {
			return nil, fmt.Errorf("%w: holdings[%d]: %v", common.ErrValidation, i, err)
		}
	}

	store := s.storage.PortfolioStore()
	if meta.PortfolioName == "" || meta.Description == "" {
		existing, err := store.GetPortfolio(ctx, userID)
		switch {
		case err == nil:
			if meta.PortfolioName == "" {
				meta.PortfolioName = existing.PortfolioName
			}
			if meta.Description == "" {
				meta.Description = existing.Description
			}
		case !errors.Is(err, common.ErrNotFound):
			return nil, fmt.Errorf("failed to load portfolio: %w", err)
		}
	}
	if meta.PortfolioName == "" {
		meta.PortfolioName = DefaultPortfolioName
	}

	resolved := WithAllocations(ResolveIdentities(positions))

	p, err := store.ReplacePositions(ctx, userID, meta, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to save holdings: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("positions", len(resolved)).
		Int("version", p.Version).
		Msg("Holdings updated")

	return p, nil
}

// SaveHistory stores real performance series. Stored series are served as-is
// in place of synthesized ones.
func (s *Service) SaveHistory(ctx context.Context, userID string, history map[string][]float64) error {
	for label, series := range history {
		if label == "" {
			return fmt.Errorf("%w: history label must not be empty", common.ErrValidation)
		}
		for i, v := range series {
			if !common.IsFinite(v) {
				return fmt.Errorf("%w: history[%s][%d] is not a finite number", common.ErrValidation, label, i)
			}
		}
	}

	if _, err := s.storage.PortfolioStore().SavePerformanceHistory(ctx, userID, history); err != nil {
		return fmt.Errorf("failed to save performance history: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Int("horizons", len(history)).Msg("Performance history updated")
	return nil
}

// RenderChart renders one horizon of the user's performance history as PNG.
func (s *Service) RenderChart(ctx context.Context, userID, horizon string) ([]byte, error) {
	snapshot, err := s.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	series, ok := snapshot.PerformanceHistory[horizon]
	if !ok {
		return nil, fmt.Errorf("%w: horizon %q", common.ErrNotFound, horizon)
	}
	return RenderPerformanceChart(horizon, series, snapshot.PerformanceSource)
}

func validatePosition(p models.Position) error {
	switch {
	case !common.IsFinite(p.Quantity) || p.Quantity < 0:
		return fmt.Errorf("quantity must be a non-negative number")
	case !common.IsFinite(p.AvgPrice) || p.AvgPrice < 0:
		return fmt.Errorf("avgPrice must be a non-negative number")
	case !common.IsFinite(p.TargetAllocation) || p.TargetAllocation < 0:
		return fmt.Errorf("targetAllocation must be a non-negative number")
	}
	return nil
}

// WithAllocations returns a copy of positions with CurrentAllocation refreshed.
func WithAllocations(positions []models.Position) []models.Position {
	var total float64
	for _, p := range positions {
		total += p.Value()
	}
	out := make([]models.Position, len(positions))
	for i, p := range positions {
		p.CurrentAllocation = percentage(p.Value(), total)
		out[i] = p
	}
	return out
}

// Compile-time check
var _ interfaces.PortfolioService = (*Service)(nil)
