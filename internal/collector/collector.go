package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"StockAdvisor/internal/model"
)

var log = logrus.WithField("component", "collector")

// Collector loads a validated daily series from a Fetcher.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// NormalizeSymbol trims and upper-cases a user-typed ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Collect fetches the bars of symbol inside the window and returns them as a
// chronological series with one bar per calendar day. An empty result is
// model.ErrNotFound; provider failures and malformed bars are model.ErrUpstream.
func (c *Collector) Collect(ctx context.Context, symbol string, w Window) (*model.Series, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, model.ErrInvalidTicker
	}

	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, w.From, w.To)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrUpstream):
			return nil, err
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: %w", model.ErrUpstream, ctx.Err())
		default:
			return nil, fmt.Errorf("%w: %s: %w", model.ErrUpstream, c.Fetcher.Name(), err)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, symbol)
	}

	series := &model.Series{Symbol: symbol, Bars: normalizeBars(bars)}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s returned malformed bars: %w", model.ErrUpstream, c.Fetcher.Name(), err)
	}
	log.Debugf("collected %d bars for %s from %s", series.Len(), symbol, c.Fetcher.Name())
	return series, nil
}

// normalizeBars truncates dates to calendar days, sorts them and keeps the
// last bar of any duplicated day.
func normalizeBars(bars []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	for i, b := range bars {
		b.Date = model.Day(b.Date)
		out[i] = b
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, b := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(b.Date) {
			dedup[n-1] = b
			continue
		}
		dedup = append(dedup, b)
	}
	return dedup
}
