package calculator

import "math"

// Stochastic computes %K over period bars and %D as the smooth-period SMA of %K.
// When the high-low range is flat, %K is 50.
func Stochastic(highs, lows, closes []float64, period, smooth int) (k, d []float64) {
	k = nanSlice(len(closes))
	if period <= 0 {
		return k, nanSlice(len(closes))
	}

	hh := HighestHigh(highs, period)
	ll := LowestLow(lows, period)
	for i := range closes {
		if math.IsNaN(hh[i]) || math.IsNaN(ll[i]) {
			continue
		}
		if hh[i] == ll[i] {
			k[i] = 50.0
			continue
		}
		k[i] = 100.0 * (closes[i] - ll[i]) / (hh[i] - ll[i])
	}
	return k, SMA(k, smooth)
}
