package portfolio

import (
	"github.com/bobmcallan/optifolio/internal/common"
)

// Synthesize builds placeholder performance series for every horizon: a
// bounded random walk from base with steps of ±volatility/2 of the running
// value. Only used when no real history is stored.
func Synthesize(base float64, horizons []common.HorizonConfig, rnd Source) map[string][]float64 {
	out := make(map[string][]float64, len(horizons))
	for _, h := range horizons {
		series := make([]float64, 0, h.Points)
		v := base
		for i := 0; i < h.Points; i++ {
			v += v * ((rnd.Float64() - 0.5) * h.Volatility)
			series = append(series, common.Round2(v))
		}
		out[h.Label] = series
	}
	return out
}

// emptyHistory maps every horizon label to an empty (non-nil) series.
func emptyHistory(horizons []common.HorizonConfig) map[string][]float64 {
	out := make(map[string][]float64, len(horizons))
	for _, h := range horizons {
		out[h.Label] = []float64{}
	}
	return out
}
