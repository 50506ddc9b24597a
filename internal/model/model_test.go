package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestBar_Validate(t *testing.T) {
	tests := []struct {
		name string
		bar  Bar
		ok   bool
	}{
		{"valid", Bar{Date: day(1), Open: 10, High: 12, Low: 9, Close: 11, Volume: 100}, true},
		{"flat", Bar{Date: day(1), Open: 10, High: 10, Low: 10, Close: 10}, true},
		{"negative volume", Bar{Date: day(1), Open: 10, High: 12, Low: 9, Close: 11, Volume: -1}, false},
		{"high below low", Bar{Date: day(1), Open: 10, High: 8, Low: 9, Close: 10}, false},
		{"high below close", Bar{Date: day(1), Open: 10, High: 11, Low: 9, Close: 12}, false},
		{"low above open", Bar{Date: day(1), Open: 8, High: 12, Low: 9, Close: 11}, false},
		{"nan close", Bar{Date: day(1), Open: 10, High: 12, Low: 9, Close: math.NaN()}, false},
		{"infinite high", Bar{Date: day(1), Open: 10, High: math.Inf(1), Low: 9, Close: 11}, false},
		{"nan volume", Bar{Date: day(1), Open: 10, High: 12, Low: 9, Close: 11, Volume: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSeries)
			}
		})
	}
}

func TestSeries_Validate(t *testing.T) {
	b := func(d int) Bar { return Bar{Date: day(d), Open: 1, High: 1, Low: 1, Close: 1} }

	assert.NoError(t, (&Series{Bars: []Bar{b(1), b(2), b(5)}}).Validate(), "gaps are allowed")
	assert.ErrorIs(t, (&Series{Bars: []Bar{b(1), b(1)}}).Validate(), ErrInvalidSeries)
	assert.ErrorIs(t, (&Series{Bars: []Bar{b(3), b(2)}}).Validate(), ErrInvalidSeries)
}

func TestValue_JSON(t *testing.T) {
	row := Row{Bar: Bar{Date: day(2), Close: 5}, RSI: Some(42.5), ATR: Some(math.NaN())}
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 42.5, m["rsi"])
	assert.Nil(t, m["atr"], "NaN is undefined")
	assert.Nil(t, m["macd"])
	assert.Equal(t, 5.0, m["close"])

	var back Row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Some(42.5), back.RSI)
	assert.False(t, back.ATR.Valid)
	assert.False(t, back.Complete())
}

func TestSignal_String(t *testing.T) {
	for _, s := range []Signal{SignalBuy, SignalSell, SignalHold, SignalUndefined} {
		assert.Equal(t, s, ParseSignal(s.String()))
	}
	data, err := json.Marshal(SignalSell)
	require.NoError(t, err)
	assert.Equal(t, `"Sell"`, string(data))
}

func TestFrame_Tail(t *testing.T) {
	f := &Frame{Rows: make([]Row, 5)}
	assert.Len(t, f.Tail(2), 2)
	assert.Len(t, f.Tail(0), 5)
	assert.Len(t, f.Tail(9), 5)

	_, ok := (&Frame{}).Last()
	assert.False(t, ok)
}
