package rebalance

import (
	"strings"

	"github.com/bobmcallan/optifolio/internal/models"
)

// SymbolMatcher resolves an optimizer symbol to a stored position.
type SymbolMatcher interface {
	Name() string
	// Match returns the index of the matching position, or false.
	Match(symbol string, positions []models.Position) (int, bool)
}

// ExactMatcher matches on the normalized (trimmed, upper-cased) symbol only.
type ExactMatcher struct{}

func (ExactMatcher) Name() string { return "exact" }

func (ExactMatcher) Match(symbol string, positions []models.Position) (int, bool) {
	want := models.NormalizeSymbol(symbol)
	if want == "" {
		return -1, false
	}
	for i, p := range positions {
		if models.NormalizeSymbol(p.Symbol) == want {
			return i, true
		}
	}
	return -1, false
}

// FuzzyMatcher tries an exact match over the whole list first, then falls back
// to the first position whose symbol contains, or is contained in, the
// optimizer symbol. Short symbols can collide ("AAP" vs "AAPL").
type FuzzyMatcher struct{}

func (FuzzyMatcher) Name() string { return "fuzzy" }

func (FuzzyMatcher) Match(symbol string, positions []models.Position) (int, bool) {
	if i, ok := (ExactMatcher{}).Match(symbol, positions); ok {
		return i, true
	}
	want := models.NormalizeSymbol(symbol)
	if want == "" {
		return -1, false
	}
	for i, p := range positions {
		have := models.NormalizeSymbol(p.Symbol)
		if have == "" {
			continue
		}
		if strings.Contains(want, have) || strings.Contains(have, want) {
			return i, true
		}
	}
	return -1, false
}

// NewMatcher returns FuzzyMatcher when fuzzy is set, ExactMatcher otherwise.
func NewMatcher(fuzzy bool) SymbolMatcher {
	if fuzzy {
		return FuzzyMatcher{}
	}
	return ExactMatcher{}
}
