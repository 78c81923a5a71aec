// Package rebalance computes rebalancing recommendations and applies
// confirmed actions to stored positions.
package rebalance

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
	"github.com/bobmcallan/optifolio/internal/services/portfolio"
)

// Service implements RebalanceService
type Service struct {
	storage interfaces.StorageManager
	policy  Policy
	locks   *keyedMutex
	logger  *common.Logger
}

// NewService creates a new rebalance service
func NewService(storage interfaces.StorageManager, policy Policy, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		policy:  policy,
		locks:   newKeyedMutex(),
		logger:  logger,
	}
}

// Policy returns the name of the active recommendation policy.
func (s *Service) Policy() string {
	return s.policy.Name()
}

// Recommend computes recommendations for the user's eligible positions
// (quantity > 0, avgPrice >= 0). No positions yields an empty list.
func (s *Service) Recommend(ctx context.Context, userID string) ([]models.RebalanceRecommendation, error) {
	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return []models.RebalanceRecommendation{}, nil
		}
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	eligible := Eligible(portfolio.ResolveIdentities(p.Positions))
	if len(eligible) == 0 {
		return []models.RebalanceRecommendation{}, nil
	}

	recs, err := s.policy.Recommend(ctx, eligible)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("policy", s.policy.Name()).
		Int("positions", len(eligible)).
		Int("recommendations", len(recs)).
		Msg("Rebalance recommendations computed")

	return recs, nil
}

// Apply executes confirmed actions against stored quantities. Applies for one
// user are serialized in-process; a concurrent writer elsewhere surfaces as
// ErrConflict through the version check.
func (s *Service) Apply(ctx context.Context, userID string, actions []models.RebalanceAction) (*models.ApplyResult, error) {
	if err := validateActions(actions); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	store := s.storage.PortfolioStore()
	p, err := store.GetPortfolio(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &models.ApplyResult{Skipped: len(actions)}, nil
		}
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	positions, updated, skipped := ApplyActions(p.Positions, actions)
	result := &models.ApplyResult{Updated: updated, Skipped: skipped, Version: p.Version}
	if updated == 0 {
		return result, nil
	}

	saved, err := store.SavePositions(ctx, userID, portfolio.WithAllocations(positions), p.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to save positions: %w", err)
	}
	result.Version = saved.Version

	s.logger.Info().
		Str("user_id", userID).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("version", saved.Version).
		Msg("Rebalance applied")

	return result, nil
}

// Eligible filters positions the recommenders consider: quantity > 0 and
// avgPrice >= 0.
func Eligible(positions []models.Position) []models.Position {
	out := make([]models.Position, 0, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 && p.AvgPrice >= 0 && common.IsFinite(p.Quantity) && common.IsFinite(p.AvgPrice) {
			out = append(out, p)
		}
	}
	return out
}

// Compile-time check
var _ interfaces.RebalanceService = (*Service)(nil)
