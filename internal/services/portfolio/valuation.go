package portfolio

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// placeholderChangeRange is the width of the synthesized daily change band (-3%..+3%).
const placeholderChangeRange = 6.0

// Valuer turns stored positions into a PortfolioSnapshot.
type Valuer struct {
	changeWeight     float64
	dispersionWeight float64
	riskMax          float64
	defaultBase      float64
	placeholders     bool
	horizons         []common.HorizonConfig
	rnd              Source
}

// NewValuer creates a Valuer from validated configuration.
func NewValuer(cfg common.ValuationConfig, rnd Source) *Valuer {
	k1, k2, rmax := cfg.RiskCalibration()
	horizons := cfg.Horizons
	if len(horizons) == 0 {
		horizons = common.DefaultHorizons()
	}
	return &Valuer{
		changeWeight:     k1,
		dispersionWeight: k2,
		riskMax:          rmax,
		defaultBase:      cfg.DefaultBaseValue,
		placeholders:     cfg.PlaceholderChanges,
		horizons:         horizons,
		rnd:              rnd,
	}
}

// Horizons returns the configured horizon labels in order.
func (v *Valuer) Horizons() []string {
	labels := make([]string, len(v.horizons))
	for i, h := range v.horizons {
		labels[i] = h.Label
	}
	return labels
}

// Empty returns the zero-valued snapshot used when a user has no positions.
func (v *Valuer) Empty() *models.PortfolioSnapshot {
	return &models.PortfolioSnapshot{
		RiskScale:          v.riskMax,
		PerformanceHistory: emptyHistory(v.horizons),
		PerformanceSource:  models.PerformanceEmpty,
		Holdings:           []models.Holding{},
	}
}

// Value computes the snapshot for a portfolio document. A nil portfolio or
// an empty position list yields Empty().
func (v *Valuer) Value(p *models.Portfolio) *models.PortfolioSnapshot {
	if p == nil || len(p.Positions) == 0 {
		return v.Empty()
	}

	holdings := make([]models.Holding, len(p.Positions))
	values := make([]float64, len(p.Positions))
	var totalValue float64
	for i, pos := range p.Positions {
		pos = ResolveIdentity(pos, i+1)
		value := pos.Value()
		if !common.IsFinite(value) || value < 0 {
			value = 0
		}
		change, source := v.dailyChange(pos)

		values[i] = value
		totalValue += value
		holdings[i] = models.Holding{
			Symbol:        pos.Symbol,
			Name:          pos.Name,
			Quantity:      pos.Quantity,
			AvgPrice:      pos.AvgPrice,
			Value:         common.Round2(value),
			ChangePercent: change,
			ChangeSource:  source,
			IconURL:       iconURL(pos.Symbol),
		}
	}

	var valueChange float64
	changes := make([]float64, len(holdings))
	percentages := make([]float64, len(holdings))
	placeholder := false
	for i := range holdings {
		holdings[i].Percentage = percentage(values[i], totalValue)
		percentages[i] = holdings[i].Percentage
		changes[i] = holdings[i].ChangePercent
		valueChange += values[i] * holdings[i].ChangePercent / 100
		if holdings[i].ChangeSource == models.ChangeSourcePlaceholder {
			placeholder = true
		}
	}

	var valueChangePercent float64
	if denom := totalValue - valueChange; denom != 0 {
		valueChangePercent = valueChange / denom * 100
	}

	history, source := v.history(p, totalValue)

	return &models.PortfolioSnapshot{
		TotalValue:         common.Round2(totalValue),
		ValueChange:        common.Round2(valueChange),
		ValueChangePercent: common.Round2(valueChangePercent),
		RiskScore:          RiskScore(changes, percentages, v.changeWeight, v.dispersionWeight, v.riskMax),
		RiskScale:          v.riskMax,
		PerformanceHistory: history,
		PerformanceSource:  source,
		PlaceholderData:    placeholder || source == models.PerformanceSynthetic,
		Holdings:           holdings,
	}
}

// dailyChange returns the reported daily change when the position carries a
// finite one, otherwise a placeholder flagged as such.
func (v *Valuer) dailyChange(p models.Position) (float64, string) {
	if p.DayChangePct != nil && common.IsFinite(*p.DayChangePct) {
		return *p.DayChangePct, models.ChangeSourceReported
	}
	if !v.placeholders {
		return 0, models.ChangeSourcePlaceholder
	}
	return common.Round2((v.rnd.Float64() - 0.5) * placeholderChangeRange), models.ChangeSourcePlaceholder
}

// history returns stored series untouched when present, otherwise synthesizes.
func (v *Valuer) history(p *models.Portfolio, totalValue float64) (map[string][]float64, string) {
	if p.HasHistory() {
		return p.PerformanceHistory, models.PerformancePersisted
	}
	base := totalValue
	if base <= 0 || !common.IsFinite(base) {
		base = v.defaultBase
	}
	return Synthesize(base, v.horizons, v.rnd), models.PerformanceSynthetic
}

// percentage is value's share of total in percent, 0 when total is 0.
func percentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return common.Round2(value / total * 100)
}

// RiskScore combines the mean absolute daily change and the dispersion of
// weights into clamp(round(avgAbsChange*k1 + sqrt(popVar(weights))*k2), 0, rmax).
func RiskScore(changes, weights []float64, k1, k2, rmax float64) float64 {
	if len(changes) == 0 || len(weights) == 0 {
		return 0
	}

	abs := make([]float64, len(changes))
	for i, c := range changes {
		abs[i] = math.Abs(c)
	}
	avgAbsChange := stat.Mean(abs, nil)
	weightVariance := stat.PopVariance(weights, nil)

	score := math.Round(avgAbsChange*k1 + math.Sqrt(weightVariance)*k2)
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(rmax, math.Max(0, score))
}

func iconURL(symbol string) string {
	return fmt.Sprintf("https://logo.clearbit.com/%s.com", strings.ToLower(symbol))
}
