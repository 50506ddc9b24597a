package collector

import (
	"context"
	"time"

	"StockAdvisor/internal/model"
)

// Fetcher defines the interface for fetching daily bars from a data provider.
// Implementations return model.ErrNotFound for unknown symbols and wrap every
// other failure with model.ErrUpstream.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
	Name() string
}

// Window is the historical range of a request.
type Window struct {
	From time.Time
	To   time.Time
}

// LastYears returns the window covering the given number of years up to now.
func LastYears(now time.Time, years int) Window {
	return Window{From: model.Day(now.AddDate(-years, 0, 0)), To: now}
}
