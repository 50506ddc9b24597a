package calculator

import (
	"fmt"

	"StockAdvisor/internal/model"
)

// Params holds the indicator periods.
type Params struct {
	RSIPeriod   int `yaml:"rsi_period" json:"rsi_period"`
	ATRPeriod   int `yaml:"atr_period" json:"atr_period"`
	MACDFast    int `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow    int `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal  int `yaml:"macd_signal" json:"macd_signal"`
	StochPeriod int `yaml:"stoch_period" json:"stoch_period"`
	StochSmooth int `yaml:"stoch_smooth" json:"stoch_smooth"`
}

// DefaultParams returns RSI(14), ATR(14), MACD(12,26,9) and Stochastic(14,3).
func DefaultParams() Params {
	return Params{
		RSIPeriod:   14,
		ATRPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		StochPeriod: 14,
		StochSmooth: 3,
	}
}

// Validate checks that every period is positive and fast < slow.
func (p Params) Validate() error {
	for name, v := range map[string]int{
		"rsi_period":   p.RSIPeriod,
		"atr_period":   p.ATRPeriod,
		"macd_fast":    p.MACDFast,
		"macd_slow":    p.MACDSlow,
		"macd_signal":  p.MACDSignal,
		"stoch_period": p.StochPeriod,
		"stoch_smooth": p.StochSmooth,
	} {
		if v <= 0 {
			return fmt.Errorf("indicators.%s must be positive", name)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}
	return nil
}

// warmups lists the number of bars each column needs before its first value.
func (p Params) warmups() []struct {
	name string
	bars int
} {
	return []struct {
		name string
		bars int
	}{
		{"RSI", p.RSIPeriod},
		{"ATR", p.ATRPeriod},
		{"MACD", max(p.MACDFast, p.MACDSlow, p.MACDSignal)},
		{"Stochastic %K", p.StochPeriod},
		{"Stochastic %D", p.StochPeriod + p.StochSmooth - 1},
	}
}

// WarmupBars returns the longest warm-up across all indicators.
func (p Params) WarmupBars() int {
	n := 0
	for _, w := range p.warmups() {
		n = max(n, w.bars)
	}
	return n
}

// Warning reports an indicator that the series is too short to define.
type Warning struct {
	Indicator string `json:"indicator"`
	Need      int    `json:"need"`
	Have      int    `json:"have"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("not enough data points for %s calculation: need %d, got %d", w.Indicator, w.Need, w.Have)
}

func (w Warning) Unwrap() error { return model.ErrInsufficientHistory }

// Compute augments the series with RSI, ATR, MACD, MACD signal and
// Stochastic %K/%D. Rows are never dropped: warm-up cells stay undefined and
// a Warning is returned for every indicator the series cannot reach.
func Compute(series *model.Series, p Params) (*model.Frame, []Warning, error) {
	if series == nil || series.Len() == 0 {
		return nil, nil, model.ErrNotFound
	}
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	n := series.Len()
	for _, w := range p.warmups() {
		if n < w.bars {
			warnings = append(warnings, Warning{Indicator: w.name, Need: w.bars, Have: n})
		}
	}

	closes := Closes(series.Bars)
	highs := Highs(series.Bars)
	lows := Lows(series.Bars)

	rsi := RSI(closes, p.RSIPeriod)
	atr := ATR(highs, lows, closes, p.ATRPeriod)
	macd, macdSignal := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	stochK, stochD := Stochastic(highs, lows, closes, p.StochPeriod, p.StochSmooth)

	frame := &model.Frame{Symbol: series.Symbol, Rows: make([]model.Row, n)}
	for i, bar := range series.Bars {
		frame.Rows[i] = model.Row{
			Bar:        bar,
			RSI:        model.Some(rsi[i]),
			ATR:        model.Some(atr[i]),
			MACD:       model.Some(macd[i]),
			MACDSignal: model.Some(macdSignal[i]),
			StochK:     model.Some(stochK[i]),
			StochD:     model.Some(stochD[i]),
		}
	}
	return frame, warnings, nil
}
