package portfolio

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bobmcallan/optifolio/internal/models"
)

const maxDerivedSymbolLen = 8

var (
	leadingAlnum = regexp.MustCompile(`^[A-Za-z0-9]+`)
	anyAlnum     = regexp.MustCompile(`[A-Za-z0-9]+`)
)

// ResolveIdentity returns p with a non-empty symbol and name. index is the
// 1-based position in the list and only feeds the ASSET{n} placeholder.
//
// Symbol comes from the leading alphanumeric run of the name (first 8 chars),
// falling back to the first alphanumeric run anywhere in it. Name mirrors the
// symbol when absent.
func ResolveIdentity(p models.Position, index int) models.Position {
	symbol := models.NormalizeSymbol(p.Symbol)
	name := strings.TrimSpace(p.Name)

	if symbol == "" && name != "" {
		run := leadingAlnum.FindString(name)
		if run == "" {
			run = anyAlnum.FindString(name)
		}
		if len(run) > maxDerivedSymbolLen {
			run = run[:maxDerivedSymbolLen]
		}
		symbol = strings.ToUpper(run)
	}
	if symbol == "" {
		symbol = fmt.Sprintf("ASSET%d", index)
	}
	if name == "" {
		name = symbol
	}

	p.Symbol = symbol
	p.Name = name
	return p
}

// ResolveIdentities applies ResolveIdentity to every position, returning a new slice.
func ResolveIdentities(positions []models.Position) []models.Position {
	out := make([]models.Position, len(positions))
	for i, p := range positions {
		out[i] = ResolveIdentity(p, i+1)
	}
	return out
}
