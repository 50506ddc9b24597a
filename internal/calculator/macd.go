package calculator

// MACD returns the MACD line (EMA fast - EMA slow) and its signal line (EMA of
// the MACD line). Both recursions run from the first bar; values before
// index max(fast, slow)-1 are masked as NaN.
func MACD(closes []float64, fast, slow, signal int) (line, sig []float64) {
	line = nanSlice(len(closes))
	sig = nanSlice(len(closes))
	if fast <= 0 || slow <= 0 || signal <= 0 || len(closes) == 0 {
		return line, sig
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	raw := make([]float64, len(closes))
	for i := range closes {
		raw[i] = fastEMA[i] - slowEMA[i]
	}
	rawSignal := EMA(raw, signal)

	warm := max(fast, slow) - 1
	for i := warm; i < len(closes); i++ {
		line[i] = raw[i]
		if i >= signal-1 {
			sig[i] = rawSignal[i]
		}
	}
	return line, sig
}
