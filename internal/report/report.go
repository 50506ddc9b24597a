package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/model"
)

// DefaultRows is the number of trailing frame rows printed by the CLI.
const DefaultRows = 10

// NewTableStyle is the rounded style used for terminal tables.
func NewTableStyle() table.Style {
	style := table.StyleRounded
	style.Format.Header = text.FormatUpper
	style.Color.Header = text.Colors{text.FgHiCyan, text.Bold}
	return style
}

func cell(v model.Value, prec int) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v.Float)
}

// WriteFrame prints the last n rows of the frame as a table.
func WriteFrame(w io.Writer, frame *model.Frame, n int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(NewTableStyle())
	t.SetTitle(frame.Symbol)
	t.AppendHeader(table.Row{"Date", "Open", "High", "Low", "Close", "Volume", "RSI", "ATR", "MACD", "MACD Sig", "%K", "%D"})
	for _, r := range frame.Tail(n) {
		t.AppendRow(table.Row{
			r.Date.Format(model.DateLayout),
			fmt.Sprintf("%.2f", r.Open),
			fmt.Sprintf("%.2f", r.High),
			fmt.Sprintf("%.2f", r.Low),
			fmt.Sprintf("%.2f", r.Close),
			fmt.Sprintf("%.0f", r.Volume),
			cell(r.RSI, 2),
			cell(r.ATR, 3),
			cell(r.MACD, 3),
			cell(r.MACDSignal, 3),
			cell(r.StochK, 1),
			cell(r.StochD, 1),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

// WriteSignal prints the colored suggestion line and the indicator readings.
func WriteSignal(w io.Writer, res *advisor.Result) {
	var c *color.Color
	switch res.Signal {
	case model.SignalBuy:
		c = color.New(color.FgGreen, color.Bold)
	case model.SignalSell:
		c = color.New(color.FgRed, color.Bold)
	case model.SignalHold:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgHiBlack)
	}
	if res.Defined() {
		c.Fprintf(w, "%s Signal Detected for %s! ", res.Signal, res.Ticker)
	} else {
		c.Fprintf(w, "No suggestion for %s. ", res.Ticker)
	}
	fmt.Fprintln(w, res.Reason)

	for _, r := range res.Readings {
		fmt.Fprintf(w, "  %-10s %s\n", r.Name, r.Commentary)
	}
	if rg := res.Range52w; rg != nil {
		fmt.Fprintf(w, "  %-10s high %.2f, low %.2f, position %.0f%%\n", "52w", rg.High, rg.Low, rg.Position*100)
	}
	if n := len(res.History); n > 0 {
		last := res.History[n-1]
		fmt.Fprintf(w, "  %-10s %d Buy/Sell rows, last %s on %s\n", "History", n, last.Signal, last.Date.Format(model.DateLayout))
	}
	for _, warn := range res.Warnings {
		color.New(color.FgHiYellow).Fprintf(w, "  warning: %v\n", warn)
	}
}

// Write prints the frame table followed by the suggestion.
func Write(w io.Writer, res *advisor.Result, rows int) {
	if rows <= 0 {
		rows = DefaultRows
	}
	fmt.Fprintf(w, "%s %s .. %s (%d bars)\n", res.Ticker,
		res.From.Format(model.DateLayout), res.To.Format(model.DateLayout), res.Frame.Len())
	WriteFrame(w, res.Frame, rows)
	WriteSignal(w, res)
}
