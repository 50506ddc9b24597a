package model

import (
	"encoding/json"
	"math"
)

// Value is an optional indicator cell. Warm-up rows carry invalid values.
type Value struct {
	Float float64
	Valid bool
}

// Some wraps a defined value. NaN is treated as undefined.
func Some(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{Float: v, Valid: true}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Row is one bar plus its derived indicator columns.
type Row struct {
	Bar
	RSI        Value `json:"rsi"`
	ATR        Value `json:"atr"`
	MACD       Value `json:"macd"`
	MACDSignal Value `json:"macd_signal"`
	StochK     Value `json:"stoch_k"`
	StochD     Value `json:"stoch_d"`
}

// Complete reports whether every derived column is defined.
func (r Row) Complete() bool {
	return r.RSI.Valid && r.ATR.Valid && r.MACD.Valid && r.MACDSignal.Valid && r.StochK.Valid && r.StochD.Valid
}

// Frame is a series augmented with indicator columns. Its rows share the
// date index of the source series; warm-up rows are kept with undefined cells.
type Frame struct {
	Symbol string `json:"symbol"`
	Rows   []Row  `json:"rows"`
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Last returns the most recent row and false if the frame is empty.
func (f *Frame) Last() (Row, bool) {
	if len(f.Rows) == 0 {
		return Row{}, false
	}
	return f.Rows[len(f.Rows)-1], true
}

// Tail returns at most the last n rows.
func (f *Frame) Tail(n int) []Row {
	if n <= 0 || n >= len(f.Rows) {
		return f.Rows
	}
	return f.Rows[len(f.Rows)-n:]
}
