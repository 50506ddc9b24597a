package strategy

import (
	"fmt"

	"StockAdvisor/internal/model"
)

// Thresholds are the RSI levels used by the decision table.
type Thresholds struct {
	Oversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	Overbought float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
}

// DefaultThresholds returns the classic 30/70 RSI bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Oversold: 30, Overbought: 70}
}

// Validate checks 0 <= oversold < overbought <= 100.
func (t Thresholds) Validate() error {
	if t.Oversold < 0 || t.Overbought > 100 || t.Oversold >= t.Overbought {
		return fmt.Errorf("signal thresholds must satisfy 0 <= oversold < overbought <= 100, got %.1f/%.1f", t.Oversold, t.Overbought)
	}
	return nil
}

// Classify evaluates the decision table on one row, first match wins:
//
//	RSI < oversold   and MACD > signal  -> Buy
//	RSI > overbought and MACD < signal  -> Sell
//	otherwise                           -> Hold
//
// A row without RSI, MACD or MACD signal cannot be classified and returns
// ErrUndefinedSignal instead of Hold.
func Classify(row model.Row, th Thresholds) (model.Signal, error) {
	if !row.RSI.Valid || !row.MACD.Valid || !row.MACDSignal.Valid {
		return model.SignalUndefined, fmt.Errorf("%w on %s: warm-up incomplete", model.ErrUndefinedSignal, row.Date.Format(model.DateLayout))
	}
	rsi, macd, sig := row.RSI.Float, row.MACD.Float, row.MACDSignal.Float
	switch {
	case rsi < th.Oversold && macd > sig:
		return model.SignalBuy, nil
	case rsi > th.Overbought && macd < sig:
		return model.SignalSell, nil
	default:
		return model.SignalHold, nil
	}
}

// ClassifyLatest classifies the most recent row of the frame.
func ClassifyLatest(frame *model.Frame, th Thresholds) (model.Signal, error) {
	if frame == nil {
		return model.SignalUndefined, model.ErrNotFound
	}
	row, ok := frame.Last()
	if !ok {
		return model.SignalUndefined, model.ErrNotFound
	}
	return Classify(row, th)
}

// History returns every row where the Buy or Sell rule fired.
func History(frame *model.Frame, th Thresholds) []model.SignalPoint {
	if frame == nil {
		return nil
	}
	var points []model.SignalPoint
	for _, row := range frame.Rows {
		sig, err := Classify(row, th)
		if err != nil || sig == model.SignalHold {
			continue
		}
		points = append(points, model.SignalPoint{Date: row.Date, Signal: sig, Close: row.Close})
	}
	return points
}
