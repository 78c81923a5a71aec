package rebalance

import (
	"math"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// OptimizerReason is the fixed reason attached to optimizer recommendations.
const OptimizerReason = "Optimizer target allocation"

// Reconcile compares optimizer target weights with current weights and emits
// one recommendation per optimizer symbol, in the optimizer's order.
// Unmatched symbols get currentWeight 0 and amount 0. The action is strict:
// BUY only when target > current, so equality resolves to SELL.
func Reconcile(positions []models.Position, totalValue float64, weights models.TargetWeights, matcher SymbolMatcher) []models.RebalanceRecommendation {
	recs := make([]models.RebalanceRecommendation, 0, len(weights))
	for _, w := range weights {
		target := w.Weight
		if !common.IsFinite(target) {
			target = 0
		}

		rec := models.RebalanceRecommendation{
			Symbol:       w.Symbol,
			Name:         w.Symbol,
			TargetWeight: common.Round2(target),
			Reason:       OptimizerReason,
		}

		var current float64
		if i, ok := matcher.Match(w.Symbol, positions); ok {
			pos := positions[i]
			rec.Matched = true
			if pos.Name != "" {
				rec.Name = pos.Name
			}
			if totalValue > 0 {
				current = pos.Value() / totalValue * 100
			}
			rec.Amount = common.Round2(math.Abs(target-current) / 100 * totalValue)
		}
		rec.CurrentWeight = common.Round2(current)

		if target > current {
			rec.Action = models.ActionBuy
		} else {
			rec.Action = models.ActionSell
		}

		recs = append(recs, rec)
	}
	return recs
}

// TotalValue sums quantity * avgPrice over positions.
func TotalValue(positions []models.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.Value()
	}
	return total
}
