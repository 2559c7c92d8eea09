package userservice

import (
	"bytes"
	"context"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const chartHistoryLimit = 200

// ChartPalette holds the colors used to render charts.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultPalette is the dark theme used by the web client.
var DefaultPalette = ChartPalette{
	Background:  drawing.ColorFromHex("111827"),
	PrimaryLine: drawing.ColorFromHex("34D399"),
	AccentLine:  drawing.ColorFromHex("FBBF24"),
	TextColor:   drawing.ColorFromHex("E5E7EB"),
}

// PointsChart renders the caller's running total over time as a PNG.
func (s *UserService) PointsChart(ctx context.Context, userID string) ([]byte, error) {
	result, err := withTelemetry(s, ctx, "PointsChart", userID, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		history, err := s.repo.ListPointHistory(ctx, nil, userID, chartHistoryLimit)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		png, err := GeneratePointsChart(history, DefaultPalette)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		return results.SuccessResult[[]byte, error](png), nil
	})
	return unwrap(result, err)
}

// GeneratePointsChart produces a PNG line chart of a user's running point total.
func GeneratePointsChart(history []userdb.PointHistory, palette ChartPalette) ([]byte, error) {
	if len(history) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	for i, entry := range history {
		xValues[i] = entry.CreatedAt
		yValues[i] = float64(entry.TotalAfter)
	}

	// go-chart needs at least two points to draw a line
	if len(history) == 1 {
		xValues = append([]time.Time{xValues[0].Add(-time.Hour)}, xValues...)
		yValues = append([]float64{yValues[0] - float64(history[0].Delta)}, yValues...)
	}

	mainSeries := chart.TimeSeries{
		Name:    "Total points",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Points",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No points yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
