package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// HighestHigh returns the rolling maximum over the given period.
func HighestHigh(highs []float64, period int) []float64 {
	out := nanSlice(len(highs))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(highs); i++ {
		out[i] = floats.Max(highs[i-period+1 : i+1])
	}
	return out
}

// LowestLow returns the rolling minimum over the given period.
func LowestLow(lows []float64, period int) []float64 {
	out := nanSlice(len(lows))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(lows); i++ {
		out[i] = floats.Min(lows[i-period+1 : i+1])
	}
	return out
}

// TradingDays52w is the number of daily bars in a 52-week range.
const TradingDays52w = 252

// Range scans the most recent n values of highs/lows and returns the extremes.
func Range(highs, lows []float64, n int) (high, low float64, err error) {
	if len(highs) == 0 || len(highs) != len(lows) {
		return 0, 0, errors.New("no bars provided")
	}
	start := len(highs) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	return floats.Max(highs[start:]), floats.Min(lows[start:]), nil
}

// RangePosition returns where current sits within [low, high], clamped to 0.0~1.0.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
