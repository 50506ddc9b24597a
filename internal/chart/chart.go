package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"StockAdvisor/internal/model"
)

var log = logrus.WithField("component", "chart")

// ErrTooFewPoints means a chart has fewer than two defined points to draw.
var ErrTooFewPoints = errors.New("not enough defined points to draw a chart")

// Options sets the canvas size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions mirror the 10x4 inch figures of a notebook plot.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 400}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

var (
	colorClose  = drawing.ColorFromHex("1f77b4")
	colorRSI    = drawing.ColorBlue
	colorATR    = drawing.ColorFromHex("9467bd")
	colorMACD   = drawing.ColorFromHex("ff7f0e")
	colorSignal = drawing.ColorGreen
	colorSell   = drawing.ColorRed
)

type column func(model.Row) model.Value

func closeColumn(r model.Row) model.Value      { return model.Some(r.Close) }
func rsiColumn(r model.Row) model.Value        { return r.RSI }
func atrColumn(r model.Row) model.Value        { return r.ATR }
func macdColumn(r model.Row) model.Value       { return r.MACD }
func macdSignalColumn(r model.Row) model.Value { return r.MACDSignal }

// line builds a time series from the defined cells of one column. Warm-up
// rows are skipped instead of being drawn as zeros.
func line(name string, rows []model.Row, col column, color drawing.Color) chart.TimeSeries {
	ts := chart.TimeSeries{
		Name:  name,
		Style: chart.Style{StrokeColor: color, StrokeWidth: 1.5},
	}
	for _, r := range rows {
		v := col(r)
		if !v.Valid {
			continue
		}
		ts.XValues = append(ts.XValues, r.Date)
		ts.YValues = append(ts.YValues, v.Float)
	}
	return ts
}

// level draws a dashed horizontal guide across the frame dates.
func level(name string, rows []model.Row, y float64, color drawing.Color) chart.TimeSeries {
	return chart.TimeSeries{
		Name:    name,
		XValues: []time.Time{rows[0].Date, rows[len(rows)-1].Date},
		YValues: []float64{y, y},
		Style: chart.Style{
			StrokeColor:     color.WithAlpha(128),
			StrokeWidth:     1,
			StrokeDashArray: []float64{5, 5},
		},
	}
}

// yRange computes a padded Y range over the given series. A flat series
// still gets a non-zero range so the renderer can scale it.
func yRange(series ...chart.TimeSeries) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.YValues {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func render(w io.Writer, title string, opt Options, primary chart.TimeSeries, extra ...chart.Series) error {
	if len(primary.XValues) < 2 {
		return fmt.Errorf("%s: %w", title, ErrTooFewPoints)
	}
	opt = opt.normalized()

	ranged := []chart.TimeSeries{primary}
	series := []chart.Series{primary}
	for _, s := range extra {
		if ts, ok := s.(chart.TimeSeries); ok {
			if len(ts.XValues) == 0 {
				continue
			}
			ranged = append(ranged, ts)
		}
		series = append(series, s)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  opt.Width,
		Height: opt.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis: chart.YAxis{
			Range: yRange(ranged...),
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", vf)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		log.WithError(err).Errorf("cannot render %s", title)
		return fmt.Errorf("render %s: %w", title, err)
	}
	return nil
}

// Price draws the close line and marks the rows where Buy or Sell fired.
func Price(w io.Writer, frame *model.Frame, points []model.SignalPoint, opt Options) error {
	closes := line("Close", frame.Rows, closeColumn, colorClose)
	var extra []chart.Series
	if len(points) > 0 {
		marks := chart.AnnotationSeries{Name: "Signals"}
		for _, p := range points {
			label, color := "B", colorSignal
			if p.Signal == model.SignalSell {
				label, color = "S", colorSell
			}
			marks.Annotations = append(marks.Annotations, chart.Value2{
				XValue: float64(p.Date.UnixNano()),
				YValue: p.Close,
				Label:  label,
				Style:  chart.Style{StrokeColor: color, FontColor: color},
			})
		}
		extra = append(extra, marks)
	}
	return render(w, frame.Symbol+" Close", opt, closes, extra...)
}

// Indicators draws Close, RSI, ATR and MACD on one shared axis.
func Indicators(w io.Writer, frame *model.Frame, opt Options) error {
	return render(w, frame.Symbol+" Technical Indicators", opt,
		line("Close", frame.Rows, closeColumn, colorClose),
		line("RSI", frame.Rows, rsiColumn, colorRSI),
		line("ATR", frame.Rows, atrColumn, colorATR),
		line("MACD", frame.Rows, macdColumn, colorMACD),
	)
}

// RSI draws the RSI line with the oversold and overbought guides.
func RSI(w io.Writer, frame *model.Frame, oversold, overbought float64, opt Options) error {
	rsi := line("RSI", frame.Rows, rsiColumn, colorRSI)
	if len(rsi.XValues) < 2 {
		return fmt.Errorf("%s RSI: %w", frame.Symbol, ErrTooFewPoints)
	}
	return render(w, "Relative Strength Index (RSI)", opt, rsi,
		level(fmt.Sprintf("%.0f", oversold), frame.Rows, oversold, colorSell),
		level(fmt.Sprintf("%.0f", overbought), frame.Rows, overbought, colorSignal),
	)
}

// MACD draws the MACD line and its signal line.
func MACD(w io.Writer, frame *model.Frame, opt Options) error {
	return render(w, "Moving Average Convergence Divergence (MACD)", opt,
		line("MACD", frame.Rows, macdColumn, colorMACD),
		line("Signal Line", frame.Rows, macdSignalColumn, colorSignal),
	)
}
