package rebalance

import (
	"fmt"
	"math"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// ApplyActions returns a copy of positions with the actions executed at each
// action's avgPrice: shares = amount/avgPrice, BUY adds, SELL subtracts and
// floors at zero. Matching is exact on the normalized symbol. Unmatched
// actions are skipped; HOLD and non-positive prices change nothing. updated
// counts the positions whose quantity changed.
func ApplyActions(positions []models.Position, actions []models.RebalanceAction) ([]models.Position, int, int) {
	out := make([]models.Position, len(positions))
	copy(out, positions)

	changed := make(map[int]bool)
	skipped := 0
	for _, a := range actions {
		i, ok := (ExactMatcher{}).Match(a.Symbol, out)
		if !ok {
			skipped++
			continue
		}
		if a.AvgPrice <= 0 || a.Action == models.ActionHold {
			continue
		}

		shares := a.Amount / a.AvgPrice
		before := out[i].Quantity
		switch a.Action {
		case models.ActionBuy:
			out[i].Quantity = before + shares
		case models.ActionSell:
			out[i].Quantity = math.Max(0, before-shares)
		}
		if out[i].Quantity != before {
			changed[i] = true
		}
	}

	return out, len(changed), skipped
}

// validateActions rejects actions the applier cannot interpret.
func validateActions(actions []models.RebalanceAction) error {
	for i, a := range actions {
		switch a.Action {
		case models.ActionBuy, models.ActionSell, models.ActionHold:
		default:
			return fmt.Errorf("%w: actions[%d]: unknown action %q", common.ErrValidation, i, a.Action)
		}
		if !common.IsFinite(a.Amount) || a.Amount < 0 {
			return fmt.Errorf("%w: actions[%d]: amount must be a non-negative number", common.ErrValidation, i)
		}
		if !common.IsFinite(a.AvgPrice) {
			return fmt.Errorf("%w: actions[%d]: avgPrice must be a number", common.ErrValidation, i)
		}
	}
	return nil
}
