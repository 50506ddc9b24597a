package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/config"
	"StockAdvisor/internal/model"
)

func init() {
	color.NoColor = true
}

func TestNewFetcher(t *testing.T) {
	cases := map[string]string{"yahoo": "yahoo", "rest": "rest", "csv": "csv", "mock": "mock"}
	for provider, name := range cases {
		cfg := &config.Config{}
		cfg.DataSource.Provider = provider
		cfg.DataSource.BaseURL = "http://localhost"
		cfg.DataSource.CSVDir = t.TempDir()
		f, err := newFetcher(cfg)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}

	cfg := &config.Config{}
	cfg.DataSource.Provider = "bloomberg"
	_, err := newFetcher(cfg)
	assert.Error(t, err)
}

func testService() *advisor.Service {
	fetcher := &collector.MockFetcher{DailyData: map[string][]model.Bar{
		"AAPL": collector.GenerateMockBars(150, 60, time.Now()),
	}}
	return advisor.NewService(collector.NewCollector(fetcher))
}

func TestPromptLoop(t *testing.T) {
	in := strings.NewReader("aapl\n\nZZZZ\nquit\nMSFT\n")
	var out bytes.Buffer
	require.NoError(t, promptLoop(context.Background(), testService(), in, &out, 3))

	text := out.String()
	assert.Contains(t, text, promptText)
	assert.Contains(t, text, "(60 bars)")
	assert.Contains(t, text, "No data found for the provided stock code.")
	assert.NotContains(t, text, "MSFT", "input after quit is ignored")
}

func TestPromptLoop_EOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, promptLoop(context.Background(), testService(), strings.NewReader(""), &out, 3))
	assert.Contains(t, out.String(), promptText)
}

func TestWriteCharts(t *testing.T) {
	res, err := testService().Analyze(context.Background(), advisor.Request{Ticker: "AAPL"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Chart.Width, cfg.Chart.Height = 600, 300
	cfg.Signal.Oversold, cfg.Signal.Overbought = 30, 70

	dir := filepath.Join(t.TempDir(), "charts")
	var out bytes.Buffer
	require.NoError(t, writeCharts(&out, dir, res, cfg))
	for _, name := range []string{"price", "indicators", "rsi", "macd"} {
		_, err := os.Stat(filepath.Join(dir, "AAPL_"+name+".png"))
		assert.NoError(t, err, name)
	}
}
