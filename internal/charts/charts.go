// Package charts renders dashboard figures as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/core"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// CategoryBreakdown renders per-category totals as a bar chart,
// largest first. Returns nil bytes when there is nothing to draw.
func (g *Generator) CategoryBreakdown(totals []core.CategoryTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(totals))
	for _, ct := range totals {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s: %s", ct.Category, ct.Total),
			Value: ct.Total.Float64(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue.WithAlpha(180),
				FontSize:    12,
				FontColor:   chart.ColorBlack,
			},
		})
	}

	graph := chart.BarChart{
		Title: "Spending by category",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    1200,
		Height:   600,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render category breakdown: %w", err)
	}
	return buffer.Bytes(), nil
}

// MonthlyTrend renders income and expense totals of a year as two
// time series. Months with no data plot as zero.
func (g *Generator) MonthlyTrend(year int, totals []core.MonthlyTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, nil
	}

	xValues := make([]time.Time, 12)
	incomeValues := make([]float64, 12)
	expenseValues := make([]float64, 12)
	for i := 0; i < 12; i++ {
		xValues[i] = time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
	}
	for _, mt := range totals {
		if mt.Month < 1 || mt.Month > 12 {
			continue
		}
		switch mt.Type {
		case core.Income:
			incomeValues[int(mt.Month)-1] = mt.Total.Float64()
		case core.Expense:
			expenseValues[int(mt.Month)-1] = mt.Total.Float64()
		}
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Monthly totals %d", year),
		Width:  1200,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan"),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Income",
				XValues: xValues,
				YValues: incomeValues,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Expenses",
				XValues: xValues,
				YValues: expenseValues,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FontSize:  12,
			FontColor: chart.ColorBlack,
		}),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render monthly trend: %w", err)
	}
	return buffer.Bytes(), nil
}

// GoalProgress renders one bar per goal at its completion percentage.
func (g *Generator) GoalProgress(goals []core.Goal) ([]byte, error) {
	if len(goals) == 0 {
		return nil, nil
	}

	bars := make([]chart.Value, 0, len(goals))
	for _, goal := range goals {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s: %.0f%%", goal.Name, goal.Progress()),
			Value: goal.Progress(),
			Style: chart.Style{
				StrokeColor: chart.ColorGreen,
				FillColor:   chart.ColorGreen.WithAlpha(180),
				FontSize:    12,
				FontColor:   chart.ColorBlack,
			},
		})
	}

	graph := chart.BarChart{
		Title: "Goal progress",
		TitleStyle: chart.Style{
			FontSize:  14,
			FontColor: chart.ColorBlack,
		},
		Width:    1200,
		Height:   600,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f%%", v.(float64))
			},
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render goal progress: %w", err)
	}
	return buffer.Bytes(), nil
}
