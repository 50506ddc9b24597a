package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/model"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func bars(n int, price float64) []model.Bar {
	out := make([]model.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		p := price + float64(i%5)
		out[i] = model.Bar{Date: start.AddDate(0, 0, i), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return out
}

func newTestScheduler(t *testing.T, watchlist ...string) (*Scheduler, *fakeSender) {
	t.Helper()
	fetcher := &collector.MockFetcher{DailyData: map[string][]model.Bar{
		"AAPL": bars(60, 100),
		"MSFT": bars(60, 300),
		"NEW":  bars(5, 10),
	}}
	svc := advisor.NewService(collector.NewCollector(fetcher))
	sender := &fakeSender{}
	return NewScheduler(context.Background(), svc, sender, watchlist), sender
}

func TestScan_CollectsFailures(t *testing.T) {
	s, _ := newTestScheduler(t, "AAPL", "ZZZZ", "msft")
	results, failures := s.Scan(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, "MSFT", results[1].Ticker)
	require.Contains(t, failures, "ZZZZ")
	assert.ErrorIs(t, failures["ZZZZ"], model.ErrNotFound)
}

func TestScanTask_Notifies(t *testing.T) {
	s, sender := newTestScheduler(t, "AAPL")
	s.scanTask()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Watchlist scan")
}

func TestScanTask_EmptyWatchlist(t *testing.T) {
	s, sender := newTestScheduler(t)
	s.scanTask()
	assert.Empty(t, sender.sent)
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, "AAPL")
	require.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, "AAPL")
	ctx := context.Background()

	help := s.HandleCommand(ctx, "/help")
	assert.Contains(t, help.Text, "/scan")
	assert.Nil(t, help.Photo)

	reply := s.HandleCommand(ctx, "aapl")
	assert.Contains(t, reply.Text, "<b>AAPL</b>")
	assert.True(t, bytes.HasPrefix(reply.Photo, []byte("\x89PNG")))

	reply = s.HandleCommand(ctx, "/analyze msft")
	assert.Contains(t, reply.Text, "<b>MSFT</b>")

	reply = s.HandleCommand(ctx, "ZZZZ")
	assert.Contains(t, reply.Text, "No data found for the provided stock code.")
	assert.Nil(t, reply.Photo)

	reply = s.HandleCommand(ctx, "NEW")
	assert.Contains(t, reply.Text, "Suggestion: Undefined")
	assert.NotNil(t, reply.Photo, "the close line is drawn even during warm-up")

	reply = s.HandleCommand(ctx, "/scan")
	assert.Contains(t, reply.Text, "Watchlist scan")

	reply = s.HandleCommand(ctx, "/analyze")
	assert.Contains(t, reply.Text, "Enter Stock Code")
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, advisor.Request) (*advisor.Result, error) {
	return nil, errors.New("boom")
}

func TestScan_StopsOnCancel(t *testing.T) {
	s := NewScheduler(context.Background(), failingAnalyzer{}, nil, []string{"A", "B"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, failures := s.Scan(ctx)
	assert.Empty(t, results)
	assert.Empty(t, failures)
	s.trySend("logged only")
}
