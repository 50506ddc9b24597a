package model

import "errors"

var (
	// ErrNotFound means the ticker produced an empty or missing series.
	ErrNotFound = errors.New("no data found")

	// ErrInsufficientHistory means the series is shorter than an indicator warm-up.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrUpstream means the data provider failed (network, status, payload).
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrInvalidSeries means bars violate ordering or price invariants.
	ErrInvalidSeries = errors.New("invalid series")

	// ErrUndefinedSignal means the latest row lacks RSI or MACD values.
	ErrUndefinedSignal = errors.New("signal undefined")
)

// ErrInvalidTicker means the user input is not a usable ticker symbol.
var ErrInvalidTicker = errors.New("ticker symbol is required")
