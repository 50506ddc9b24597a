package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// TrueRange returns the per-bar true range. The first bar has no previous
// close, so its range is high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		prevClose := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-prevClose), math.Abs(lows[i]-prevClose)))
	}
	return out
}

// ATR computes the average true range. The first value, at index period-1,
// is the mean of the first period true ranges; later values use Wilder smoothing.
func ATR(highs, lows, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	tr := TrueRange(highs, lows, closes)
	p := float64(period)
	atr := floats.Sum(tr[:period]) / p
	out[period-1] = atr
	for i := period; i < len(tr); i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}
