package models

import "strings"

// NormalizeSymbol trims and upper-cases a ticker for comparison.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
