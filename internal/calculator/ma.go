package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SMA computes the simple moving average over the given period. Positions
// before the window fills, or whose window contains NaN, are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		if floats.HasNaN(window) {
			continue
		}
		out[i] = floats.Sum(window) / float64(period)
	}
	return out
}

// EMA computes the exponential moving average with smoothing 2/(span+1),
// seeded with the first value. Every position is filled; callers mask the
// warm-up themselves.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	prev := values[0]
	out[0] = prev
	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			out[i] = prev
			continue
		}
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}
