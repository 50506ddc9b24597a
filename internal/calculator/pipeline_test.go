package calculator

import (
	"errors"
	"testing"
	"time"

	"StockAdvisor/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds a series with a fixed spread around each close.
func seriesFromCloses(closes []float64, spread float64) *model.Series {
	s := &model.Series{Symbol: "TEST"}
	for i, c := range closes {
		s.Bars = append(s.Bars, model.Bar{
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + spread,
			Low:    c - spread,
			Close:  c,
			Volume: 1000,
		})
	}
	return s
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCompute_EmptySeries(t *testing.T) {
	_, _, err := Compute(&model.Series{Symbol: "NONE"}, DefaultParams())
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = Compute(nil, DefaultParams())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCompute_InvalidSeries(t *testing.T) {
	s := seriesFromCloses([]float64{10, 11, 12}, 1)
	s.Bars[2].Date = s.Bars[1].Date
	_, _, err := Compute(s, DefaultParams())
	assert.ErrorIs(t, err, model.ErrInvalidSeries)
}

func TestCompute_SingleBar(t *testing.T) {
	frame, warnings, err := Compute(seriesFromCloses([]float64{42}, 1), DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.Len(t, warnings, 5)
	for _, w := range warnings {
		assert.True(t, errors.Is(w, model.ErrInsufficientHistory))
		assert.Equal(t, 1, w.Have)
	}
	row, _ := frame.Last()
	assert.False(t, row.RSI.Valid)
	assert.False(t, row.MACD.Valid)
}

func TestCompute_RSIWarmupBoundary(t *testing.T) {
	p := DefaultParams()

	frame, warnings, err := Compute(seriesFromCloses(linear(13, 100, 1), 0.5), p)
	require.NoError(t, err)
	for i, row := range frame.Rows {
		assert.False(t, row.RSI.Valid, "row %d", i)
	}
	assert.Equal(t, "RSI", warnings[0].Indicator)
	assert.Equal(t, 14, warnings[0].Need)

	frame, _, err = Compute(seriesFromCloses(linear(14, 100, 1), 0.5), p)
	require.NoError(t, err)
	for i, row := range frame.Rows[:13] {
		assert.False(t, row.RSI.Valid, "row %d", i)
	}
	last, _ := frame.Last()
	assert.True(t, last.RSI.Valid)
	assert.True(t, last.ATR.Valid)
	assert.True(t, last.StochK.Valid)
	assert.False(t, last.StochD.Valid)
}

func TestCompute_MACDDefinedAt26Bars(t *testing.T) {
	frame, warnings, err := Compute(seriesFromCloses(linear(26, 50, 0.3), 0.5), DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	last, _ := frame.Last()
	assert.True(t, last.Complete())
	assert.False(t, frame.Rows[24].MACD.Valid)
	assert.False(t, frame.Rows[24].MACDSignal.Valid)
}

func TestCompute_MonotonicIncreasing(t *testing.T) {
	frame, _, err := Compute(seriesFromCloses(linear(40, 10, 1), 0.5), DefaultParams())
	require.NoError(t, err)
	last, _ := frame.Last()
	assert.InDelta(t, 100.0, last.RSI.Float, 1e-9)
	assert.Greater(t, last.MACD.Float, 0.0)
}

func TestCompute_MonotonicDecreasing(t *testing.T) {
	frame, _, err := Compute(seriesFromCloses(linear(40, 100, -1), 0.5), DefaultParams())
	require.NoError(t, err)
	last, _ := frame.Last()
	assert.InDelta(t, 0.0, last.RSI.Float, 1e-9)
	assert.Less(t, last.MACD.Float, 0.0)
}

func TestCompute_FlatSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 25
	}
	frame, warnings, err := Compute(seriesFromCloses(closes, 0), DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	last, _ := frame.Last()
	require.True(t, last.Complete())
	assert.Equal(t, 50.0, last.RSI.Float)
	assert.Equal(t, 0.0, last.ATR.Float)
	assert.InDelta(t, 0.0, last.MACD.Float, 1e-12)
	assert.InDelta(t, 0.0, last.MACDSignal.Float, 1e-12)
	assert.Equal(t, 50.0, last.StochK.Float)
}

func TestCompute_Idempotent(t *testing.T) {
	closes := []float64{10, 10.5, 10.2, 11, 11.4, 10.9, 10.1, 9.8, 10.4, 10.9,
		11.8, 12.1, 11.7, 11.2, 11.9, 12.5, 12.2, 12.9, 13.4, 13.1,
		12.6, 12.0, 11.5, 11.9, 12.4, 12.8, 13.3, 13.9, 13.2, 12.7}
	s := seriesFromCloses(closes, 0.4)

	a, wa, err := Compute(s, DefaultParams())
	require.NoError(t, err)
	b, wb, err := Compute(s, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, wa, wb)
}

func TestCompute_NoLookAhead(t *testing.T) {
	closes := linear(40, 20, 0.2)
	for i := range closes {
		if i%3 == 0 {
			closes[i] -= 1
		}
	}
	full, _, err := Compute(seriesFromCloses(closes, 0.5), DefaultParams())
	require.NoError(t, err)
	prefix, _, err := Compute(seriesFromCloses(closes[:30], 0.5), DefaultParams())
	require.NoError(t, err)

	for i := range prefix.Rows {
		assert.Equal(t, prefix.Rows[i], full.Rows[i], "row %d", i)
	}
}

func TestCompute_ATRNonNegative(t *testing.T) {
	closes := []float64{5, 7, 4, 9, 3, 8, 2, 6, 5, 7, 4, 9, 3, 8, 2, 6, 10, 1}
	frame, _, err := Compute(seriesFromCloses(closes, 0.9), DefaultParams())
	require.NoError(t, err)
	for _, row := range frame.Rows {
		if row.ATR.Valid {
			assert.GreaterOrEqual(t, row.ATR.Float, 0.0)
		}
	}
}

func TestCompute_RejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.MACDFast = 30
	_, _, err := Compute(seriesFromCloses([]float64{1, 2}, 0.1), p)
	assert.Error(t, err)
}

func TestParams_WarmupBars(t *testing.T) {
	assert.Equal(t, 26, DefaultParams().WarmupBars())
}
