package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/optifolio/internal/models"
)

func aaplMsft() []models.Position {
	return []models.Position{
		{Symbol: "AAPL", Name: "Apple", Quantity: 10, AvgPrice: 100},
		{Symbol: "MSFT", Name: "Microsoft", Quantity: 5, AvgPrice: 200},
	}
}

func TestReconcile_BuyAndSell(t *testing.T) {
	positions := aaplMsft()
	weights := models.TargetWeights{{Symbol: "AAPL", Weight: 60}, {Symbol: "MSFT", Weight: 40}}

	recs := Reconcile(positions, TotalValue(positions), weights, FuzzyMatcher{})

	require.Len(t, recs, 2)
	assert.Equal(t, models.RebalanceRecommendation{
		Symbol: "AAPL", Name: "Apple", CurrentWeight: 50, TargetWeight: 60,
		Amount: 200, Action: models.ActionBuy, Reason: OptimizerReason, Matched: true,
	}, recs[0])
	assert.Equal(t, models.RebalanceRecommendation{
		Symbol: "MSFT", Name: "Microsoft", CurrentWeight: 50, TargetWeight: 40,
		Amount: 200, Action: models.ActionSell, Reason: OptimizerReason, Matched: true,
	}, recs[1])
}

func TestReconcile_TieResolvesToSell(t *testing.T) {
	positions := aaplMsft()
	recs := Reconcile(positions, 2000, models.TargetWeights{{Symbol: "AAPL", Weight: 50}}, ExactMatcher{})

	require.Len(t, recs, 1)
	assert.Equal(t, models.ActionSell, recs[0].Action)
	assert.Equal(t, 0.0, recs[0].Amount)
}

func TestReconcile_KeepsOptimizerOrder(t *testing.T) {
	positions := aaplMsft()
	recs := Reconcile(positions, 2000, models.TargetWeights{{Symbol: "MSFT", Weight: 10}, {Symbol: "AAPL", Weight: 90}}, ExactMatcher{})

	require.Len(t, recs, 2)
	assert.Equal(t, "MSFT", recs[0].Symbol)
	assert.Equal(t, "AAPL", recs[1].Symbol)
}

func TestReconcile_UnmatchedSymbol(t *testing.T) {
	positions := aaplMsft()
	recs := Reconcile(positions, 2000, models.TargetWeights{{Symbol: "TSLA", Weight: 30}}, FuzzyMatcher{})

	require.Len(t, recs, 1)
	assert.False(t, recs[0].Matched)
	assert.Equal(t, "TSLA", recs[0].Name)
	assert.Equal(t, 0.0, recs[0].CurrentWeight)
	assert.Equal(t, 0.0, recs[0].Amount)
	assert.Equal(t, models.ActionBuy, recs[0].Action)
}

func TestReconcile_ZeroTotalValue(t *testing.T) {
	positions := []models.Position{{Symbol: "FREE", Quantity: 3, AvgPrice: 0}}
	recs := Reconcile(positions, 0, models.TargetWeights{{Symbol: "FREE", Weight: 100}}, ExactMatcher{})

	require.Len(t, recs, 1)
	assert.Equal(t, 0.0, recs[0].CurrentWeight)
	assert.Equal(t, 0.0, recs[0].Amount)
}

func TestMatchers(t *testing.T) {
	positions := []models.Position{{Symbol: "AAP"}, {Symbol: "AAPL"}, {Symbol: ""}, {Symbol: "reliance"}}

	tests := []struct {
		name    string
		matcher SymbolMatcher
		symbol  string
		want    int
		wantOK  bool
	}{
		{"exact hit", ExactMatcher{}, "aapl", 1, true},
		{"exact miss", ExactMatcher{}, "RELIANCE.NS", -1, false},
		{"fuzzy prefers exact over earlier substring", FuzzyMatcher{}, "AAPL", 1, true},
		{"fuzzy substring", FuzzyMatcher{}, "RELIANCE.NS", 3, true},
		// the first substring hit wins even when it is the wrong security
		{"fuzzy short symbol hazard", FuzzyMatcher{}, "AAPLX", 0, true},
		{"empty symbol never matches", FuzzyMatcher{}, "  ", -1, false},
		{"empty symbol never matches exact", ExactMatcher{}, "", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.matcher.Match(tt.symbol, positions)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMatcher(t *testing.T) {
	assert.Equal(t, "fuzzy", NewMatcher(true).Name())
	assert.Equal(t, "exact", NewMatcher(false).Name())
}
