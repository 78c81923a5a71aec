// Package models defines data structures for OptiFolio
package models

import "time"

// Position is one user-entered holding of a symbol at an average cost.
type Position struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Quantity          float64 `json:"quantity"`
	AvgPrice          float64 `json:"avgPrice"`
	TargetAllocation  float64 `json:"targetAllocation"`  // percent, 0 = unset
	CurrentAllocation float64 `json:"currentAllocation"` // derived, never authoritative
	// DayChangePct is the caller-supplied daily change percent, if known.
	DayChangePct *float64 `json:"dayChangePct,omitempty"`
}

// Value returns quantity * average price.
func (p Position) Value() float64 {
	return p.Quantity * p.AvgPrice
}

// Portfolio is the persisted per-user document.
type Portfolio struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"userId"`
	PortfolioName      string               `json:"portfolioName"`
	Description        string               `json:"description"`
	Positions          []Position           `json:"positions"`
	PerformanceHistory map[string][]float64 `json:"performanceHistory,omitempty"`
	Version            int                  `json:"version"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

// HasHistory reports whether real performance history has been stored.
func (p *Portfolio) HasHistory() bool {
	return p != nil && len(p.PerformanceHistory) > 0
}

// PortfolioMeta carries the descriptive fields set on a holdings upload.
type PortfolioMeta struct {
	PortfolioName string `json:"portfolioName"`
	Description   string `json:"description"`
}

// Change sources for Holding.ChangeSource
const (
	ChangeSourceReported    = "reported"
	ChangeSourcePlaceholder = "placeholder"
)

// Performance sources for PortfolioSnapshot.PerformanceSource
const (
	PerformancePersisted = "persisted"
	PerformanceSynthetic = "synthetic"
	PerformanceEmpty     = "empty"
)

// Holding is a valued view of a Position. Recomputed on every read.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avgPrice"`
	Value         float64 `json:"value"`
	ChangePercent float64 `json:"changePercent"`
	ChangeSource  string  `json:"changeSource"`
	Percentage    float64 `json:"percentage"`
	IconURL       string  `json:"iconUrl"`
}

// PortfolioSnapshot is the valuation response for GET /api/portfolio/data.
type PortfolioSnapshot struct {
	TotalValue         float64              `json:"totalValue"`
	ValueChange        float64              `json:"valueChange"`
	ValueChangePercent float64              `json:"valueChangePercent"`
	RiskScore          float64              `json:"riskScore"`
	RiskScale          float64              `json:"riskScale"`
	PerformanceHistory map[string][]float64 `json:"performanceHistory"`
	PerformanceSource  string               `json:"performanceSource"`
	// PlaceholderData is true when any figure above was synthesized rather
	// than derived from stored or reported data.
	PlaceholderData bool      `json:"placeholderData"`
	Holdings        []Holding `json:"holdings"`
}
