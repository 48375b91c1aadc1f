// Package chart renders historical metric rows as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/models"
)

var (
	// ErrUnknownMetric is returned for a metric outside the canonical table.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoValues is returned when the row has nothing to plot.
	ErrNoValues = errors.New("no values to chart")
)

const (
	barWidth   = 36
	barSpacing = 14
	minWidth   = 640
	height     = 360
)

// Palette is the bar colour scheme for one theme.
type Palette struct {
	Positive   drawing.Color
	Negative   drawing.Color
	Absent     drawing.Color
	Text       drawing.Color
	Background drawing.Color
}

// LightPalette and DarkPalette match the dashboard CSS themes.
var (
	LightPalette = Palette{
		Positive:   drawing.ColorFromHex("1976d2"),
		Negative:   drawing.ColorFromHex("d32f2f"),
		Absent:     drawing.ColorFromHex("bdbdbd"),
		Text:       drawing.ColorFromHex("212121"),
		Background: drawing.ColorFromHex("ffffff"),
	}
	DarkPalette = Palette{
		Positive:   drawing.ColorFromHex("64b5f6"),
		Negative:   drawing.ColorFromHex("ef9a9a"),
		Absent:     drawing.ColorFromHex("616161"),
		Text:       drawing.ColorFromHex("e0e0e0"),
		Background: drawing.ColorFromHex("1e1e1e"),
	}
)

// RenderMetricChart renders one metric row of a historical table as a PNG
// bar chart, one bar per column. Absent cells are drawn as empty bars
// labelled N/A.
func RenderMetricChart(table *models.HistoricalTable, metric, symbol string, dark bool) ([]byte, error) {
	if _, ok := models.LookupMetric(metric); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if table.IsEmpty() {
		return nil, ErrNoValues
	}

	palette := LightPalette
	if dark {
		palette = DarkPalette
	}

	bars := make([]chart.Value, len(table.Columns))
	lo, hi := 0.0, 0.0
	numeric := 0

	for i, col := range table.Columns {
		v, ok := table.Cell(metric, i).Float()
		if !ok {
			bars[i] = chart.Value{
				Label: col.Label + " " + common.NotAvailable,
				Value: 0,
				Style: chart.Style{FillColor: palette.Absent, StrokeColor: palette.Absent},
			}
			continue
		}

		numeric++
		lo, hi = min(lo, v), max(hi, v)
		color := palette.Positive
		if v < 0 {
			color = palette.Negative
		}
		bars[i] = chart.Value{
			Label: col.Label,
			Value: v,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		}
	}

	if numeric == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValues, metric)
	}
	if lo == hi {
		hi = lo + 1
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < minWidth {
		width = minWidth
	}

	textStyle := chart.Style{FontColor: palette.Text, StrokeColor: palette.Text}

	graph := chart.BarChart{
		Title:      metric,
		TitleStyle: textStyle,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		Canvas:       chart.Style{FillColor: palette.Background},
		UseBaseValue: true,
		BaseValue:    0,
		XAxis:        textStyle,
		YAxis: chart.YAxis{
			Style: textStyle,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return common.FormatFloat(f, symbol)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
