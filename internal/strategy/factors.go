package strategy

import (
	"fmt"

	"StockAdvisor/internal/model"
)

// Reading is a short commentary on one indicator of a row.
type Reading struct {
	Name       string `json:"name"`
	Commentary string `json:"commentary"`
}

func readRSI(row model.Row, th Thresholds) Reading {
	if !row.RSI.Valid {
		return Reading{Name: "RSI", Commentary: "n/a"}
	}
	rsi := row.RSI.Float
	zone := "neutral"
	switch {
	case rsi < th.Oversold:
		zone = "oversold"
	case rsi > th.Overbought:
		zone = "overbought"
	}
	return Reading{Name: "RSI", Commentary: fmt.Sprintf("RSI=%.1f (%s)", rsi, zone)}
}

func readMACD(row model.Row) Reading {
	if !row.MACD.Valid || !row.MACDSignal.Valid {
		return Reading{Name: "MACD", Commentary: "n/a"}
	}
	diff := row.MACD.Float - row.MACDSignal.Float
	dir := "flat"
	switch {
	case diff > 0:
		dir = "above signal"
	case diff < 0:
		dir = "below signal"
	}
	return Reading{Name: "MACD", Commentary: fmt.Sprintf("MACD=%.3f %s (%.3f)", row.MACD.Float, dir, row.MACDSignal.Float)}
}

// %K/%D bands use the usual 20/80 levels; they do not feed the decision table.
func readStochastic(row model.Row) Reading {
	if !row.StochK.Valid {
		return Reading{Name: "Stochastic", Commentary: "n/a"}
	}
	k := row.StochK.Float
	zone := "neutral"
	switch {
	case k < 20:
		zone = "oversold"
	case k > 80:
		zone = "overbought"
	}
	if row.StochD.Valid {
		return Reading{Name: "Stochastic", Commentary: fmt.Sprintf("%%K=%.1f %%D=%.1f (%s)", k, row.StochD.Float, zone)}
	}
	return Reading{Name: "Stochastic", Commentary: fmt.Sprintf("%%K=%.1f (%s)", k, zone)}
}

func readATR(row model.Row) Reading {
	if !row.ATR.Valid {
		return Reading{Name: "ATR", Commentary: "n/a"}
	}
	pct := 0.0
	if row.Close > 0 {
		pct = row.ATR.Float / row.Close * 100
	}
	return Reading{Name: "ATR", Commentary: fmt.Sprintf("ATR=%.2f (%.1f%% of close)", row.ATR.Float, pct)}
}

// Readings describes every indicator of the row.
func Readings(row model.Row, th Thresholds) []Reading {
	return []Reading{readRSI(row, th), readMACD(row), readStochastic(row), readATR(row)}
}

// Reason explains in one line why the row produced the given signal.
func Reason(row model.Row, sig model.Signal, th Thresholds) string {
	switch sig {
	case model.SignalBuy:
		return fmt.Sprintf("RSI %.1f below %.0f and MACD above its signal line", row.RSI.Float, th.Oversold)
	case model.SignalSell:
		return fmt.Sprintf("RSI %.1f above %.0f and MACD below its signal line", row.RSI.Float, th.Overbought)
	case model.SignalHold:
		return "neither the oversold nor the overbought rule matched"
	default:
		return "not enough history to compute RSI and MACD"
	}
}
