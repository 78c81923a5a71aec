package common

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds to 2 decimal places (half away from zero). Non-finite input
// collapses to 0 so NaN/Inf never reach a response.
func Round2(v float64) float64 {
	if !IsFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
