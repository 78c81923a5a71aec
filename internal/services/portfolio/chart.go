package portfolio

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/models"
)

// RenderPerformanceChart renders a PNG line chart of one performance series.
// Synthetic series are drawn dashed and titled as simulated.
func RenderPerformanceChart(horizon string, series []float64, source string) ([]byte, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 data points, got %d", common.ErrValidation, len(series))
	}

	xValues := make([]float64, len(series))
	for i := range series {
		xValues[i] = float64(i)
	}

	style := chart.Style{
		StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
		StrokeWidth: 2.5,
	}
	title := fmt.Sprintf("Portfolio Value (%s)", horizon)
	if source != models.PerformancePersisted {
		style.StrokeDashArray = []float64{5.0, 3.0}
		title += " - simulated"
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f+1)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.1fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Portfolio Value",
				Style:   style,
				XValues: xValues,
				YValues: series,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
