package rebalance

import (
	"context"
	"fmt"
	"math"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/models"
)

// Reasons attached by the tolerance band policy
const (
	ReasonOverTarget  = "Over target allocation"
	ReasonBelowTarget = "Below target allocation"
	ReasonWithinBand  = "Within tolerance"
)

// DefaultTolerance is the band half-width in percentage points.
const DefaultTolerance = 2.0

// Policy produces recommendations for a set of eligible positions.
type Policy interface {
	Name() string
	Recommend(ctx context.Context, positions []models.Position) ([]models.RebalanceRecommendation, error)
}

// OptimizerPolicy asks the external optimizer for target weights and
// reconciles them against the positions.
type OptimizerPolicy struct {
	client  interfaces.OptimizerClient
	matcher SymbolMatcher
	logger  *common.Logger
}

// NewOptimizerPolicy creates an optimizer-backed policy.
func NewOptimizerPolicy(client interfaces.OptimizerClient, matcher SymbolMatcher, logger *common.Logger) *OptimizerPolicy {
	return &OptimizerPolicy{client: client, matcher: matcher, logger: logger}
}

func (p *OptimizerPolicy) Name() string { return common.PolicyOptimizer }

// Recommend never returns a partial list: any optimizer failure is reported
// as ErrUpstreamUnavailable.
func (p *OptimizerPolicy) Recommend(ctx context.Context, positions []models.Position) ([]models.RebalanceRecommendation, error) {
	assets := make([]string, len(positions))
	for i, pos := range positions {
		assets[i] = pos.Symbol
	}

	weights, err := p.client.TargetWeights(ctx, assets)
	if err != nil {
		p.logger.Warn().Err(err).Int("assets", len(assets)).Msg("Optimizer request failed")
		return nil, fmt.Errorf("%w: optimizer: %v", common.ErrUpstreamUnavailable, err)
	}

	recs := Reconcile(positions, TotalValue(positions), weights, p.matcher)

	unmatched := 0
	for _, r := range recs {
		if !r.Matched {
			unmatched++
		}
	}
	if unmatched > 0 {
		p.logger.Warn().Int("unmatched", unmatched).Str("matcher", p.matcher.Name()).Msg("Optimizer returned symbols with no matching position")
	}

	return recs, nil
}

// TargetBandPolicy compares current weights with stored target allocations
// (or an equal split when unset) and holds inside a tolerance band.
type TargetBandPolicy struct {
	tolerance float64
}

// NewTargetBandPolicy creates a tolerance band policy. A non-positive
// tolerance falls back to DefaultTolerance.
func NewTargetBandPolicy(tolerance float64) *TargetBandPolicy {
	if tolerance <= 0 || !common.IsFinite(tolerance) {
		tolerance = DefaultTolerance
	}
	return &TargetBandPolicy{tolerance: tolerance}
}

func (p *TargetBandPolicy) Name() string { return common.PolicyTarget }

func (p *TargetBandPolicy) Recommend(_ context.Context, positions []models.Position) ([]models.RebalanceRecommendation, error) {
	recs := make([]models.RebalanceRecommendation, 0, len(positions))
	if len(positions) == 0 {
		return recs, nil
	}

	total := TotalValue(positions)
	equal := 100 / float64(len(positions))
	for _, pos := range positions {
		target := pos.TargetAllocation
		if target <= 0 {
			target = equal
		}
		var current float64
		if total > 0 {
			current = pos.Value() / total * 100
		}
		action, reason := BandAction(current, target, p.tolerance)

		recs = append(recs, models.RebalanceRecommendation{
			Symbol:        pos.Symbol,
			Name:          pos.Name,
			CurrentWeight: common.Round2(current),
			TargetWeight:  common.Round2(target),
			Amount:        common.Round2(math.Abs(current-target) / 100 * total),
			Action:        action,
			Reason:        reason,
			Matched:       true,
		})
	}
	return recs, nil
}

// BandAction is the tolerance band decision: SELL above target+tolerance, BUY
// below target-tolerance, HOLD otherwise.
func BandAction(current, target, tolerance float64) (models.Action, string) {
	diff := current - target
	switch {
	case diff > tolerance:
		return models.ActionSell, ReasonOverTarget
	case diff < -tolerance:
		return models.ActionBuy, ReasonBelowTarget
	default:
		return models.ActionHold, ReasonWithinBand
	}
}

// NewPolicy builds the deployment's policy from configuration.
func NewPolicy(cfg common.RebalanceConfig, client interfaces.OptimizerClient, logger *common.Logger) (Policy, error) {
	switch cfg.Policy {
	case common.PolicyOptimizer, "":
		if client == nil {
			return nil, fmt.Errorf("optimizer policy requires an optimizer client")
		}
		return NewOptimizerPolicy(client, NewMatcher(cfg.FuzzyMatch), logger), nil
	case common.PolicyTarget:
		return NewTargetBandPolicy(cfg.Tolerance), nil
	default:
		return nil, fmt.Errorf("unknown rebalance policy %q", cfg.Policy)
	}
}
