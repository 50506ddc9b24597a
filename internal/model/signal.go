package model

import (
	"encoding/json"
	"time"
)

// Signal is the heuristic suggestion derived from the latest frame row.
type Signal int

const (
	SignalUndefined Signal = iota
	SignalBuy
	SignalSell
	SignalHold
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "Buy"
	case SignalSell:
		return "Sell"
	case SignalHold:
		return "Hold"
	default:
		return "Undefined"
	}
}

// ParseSignal is the inverse of String. Unknown text maps to SignalUndefined.
func ParseSignal(s string) Signal {
	switch s {
	case "Buy":
		return SignalBuy
	case "Sell":
		return SignalSell
	case "Hold":
		return SignalHold
	default:
		return SignalUndefined
	}
}

func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// SignalPoint marks a historical row where the Buy or Sell rule fired.
type SignalPoint struct {
	Date   time.Time `json:"date"`
	Signal Signal    `json:"signal"`
	Close  float64   `json:"close"`
}
