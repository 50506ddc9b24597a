package advisor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/metrics"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/recorder"
)

var testNow = time.Date(2024, 6, 28, 21, 0, 0, 0, time.UTC)

func flatBars(n int, price float64) []model.Bar {
	bars := make([]model.Bar, n)
	start := model.Day(testNow).AddDate(0, 0, -(n - 1))
	for i := range bars {
		bars[i] = model.Bar{Date: start.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

func newTestService(f collector.Fetcher) *Service {
	s := NewService(collector.NewCollector(f))
	s.now = func() time.Time { return testNow }
	s.Metrics = metrics.NewMetrics()
	return s
}

func TestAnalyze_FlatSeriesHolds(t *testing.T) {
	s := newTestService(&collector.MockFetcher{DailyData: map[string][]model.Bar{"AAPL": flatBars(30, 100)}})

	res, err := s.Analyze(context.Background(), Request{Ticker: " aapl "})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, model.SignalHold, res.Signal)
	assert.True(t, res.Defined())
	assert.Equal(t, 30, res.Frame.Len())
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.History)
	assert.InDelta(t, 50, res.Latest.RSI.Float, 1e-9)
	require.NotNil(t, res.Range52w)
	assert.Equal(t, 0.5, res.Range52w.Position)
	assert.Equal(t, model.Day(testNow.AddDate(-5, 0, 0)), res.From)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.AnalysesTotal.WithLabelValues("Hold")))
}

func TestAnalyze_ShortSeriesDegrades(t *testing.T) {
	s := newTestService(&collector.MockFetcher{DailyData: map[string][]model.Bar{"NEW": flatBars(10, 20)}})

	res, err := s.Analyze(context.Background(), Request{Ticker: "NEW"})
	require.NoError(t, err)
	assert.Equal(t, model.SignalUndefined, res.Signal)
	assert.False(t, res.Defined())
	assert.Equal(t, 10, res.Frame.Len(), "warm-up rows are retained")
	require.NotEmpty(t, res.Warnings)
	for _, w := range res.Warnings {
		assert.ErrorIs(t, w, model.ErrInsufficientHistory)
	}
	assert.Contains(t, res.Reason, "not enough history")
}

func TestAnalyze_Errors(t *testing.T) {
	cases := []struct {
		name    string
		fetcher collector.Fetcher
		req     Request
		want    error
		kind    string
		message string
	}{
		{"empty ticker", &collector.MockFetcher{}, Request{Ticker: "  "}, model.ErrInvalidTicker, "invalid_ticker", "Enter Stock Code"},
		{"unknown ticker", &collector.MockFetcher{DailyData: map[string][]model.Bar{}}, Request{Ticker: "ZZZZ"}, model.ErrNotFound, "not_found", "No data found for the provided stock code."},
		{"provider down", &collector.MockFetcher{Err: errors.New("connection refused")}, Request{Ticker: "AAPL"}, model.ErrUpstream, "upstream", "try again later"},
		{"window too long", &collector.MockFetcher{}, Request{Ticker: "AAPL", Years: 99}, ErrInvalidWindow, "invalid_window", "between 1 and"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestService(tc.fetcher)
			res, err := s.Analyze(context.Background(), tc.req)
			assert.Nil(t, res)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.kind, Kind(err))
			assert.Contains(t, UserMessage(err), tc.message)
			assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.FailuresTotal.WithLabelValues(tc.kind)))
		})
	}
}

func TestAnalyze_YearsOverride(t *testing.T) {
	s := newTestService(&collector.MockFetcher{Price: 50, Days: 60})
	res, err := s.Analyze(context.Background(), Request{Ticker: "AAPL", Years: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Day(testNow.AddDate(-3, 0, 0)), res.From)
}

func TestAnalyze_RecordsHistory(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "advisor.db"))
	require.NoError(t, err)
	defer rec.Close()

	s := newTestService(&collector.MockFetcher{DailyData: map[string][]model.Bar{"AAPL": flatBars(40, 10)}})
	s.Recorder = rec

	_, err = s.Analyze(context.Background(), Request{Ticker: "aapl", Source: "cli"})
	require.NoError(t, err)

	got, err := s.History("aapl", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.SignalHold, got[0].Signal)
	assert.Equal(t, "cli", got[0].Source)

	_, err = s.History(" ", 10)
	assert.ErrorIs(t, err, model.ErrInvalidTicker)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "No data found for the provided stock code.",
		UserMessage(fmt.Errorf("wrapped: %w", model.ErrNotFound)))
	assert.Equal(t, "Not enough history to produce a suggestion.", UserMessage(model.ErrUndefinedSignal))
	assert.Equal(t, "Unexpected error while analyzing the stock.", UserMessage(errors.New("boom")))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
}
