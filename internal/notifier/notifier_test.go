package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/strategy"
)

func testNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIURL = url
	n.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestSendPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendPhoto", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("chat_id"))
		assert.Equal(t, "chart", r.FormValue("caption"))
		f, _, err := r.FormFile("photo")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("PNGDATA"), data)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).SendPhoto(context.Background(), "7", "chart", []byte("PNGDATA")))
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_BadRequestIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).SendWithRetry(context.Background(), "x", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStartPolling_RepliesToSender(t *testing.T) {
	var (
		mu      sync.Mutex
		served  bool
		replies []string
		photos  int
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served {
				cancel()
				w.Write([]byte(`{"ok":true,"result":[]}`))
				return
			}
			served = true
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":10,"message":{"text":" aapl ","chat":{"id":99}}},
				{"update_id":11},
				{"update_id":12,"message":{"text":"/scan","chat":{"id":7}}},
				{"update_id":13,"message":{"text":"msft","chat":{"id":42}}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies = append(replies, body["chat_id"]+":"+body["text"])
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/sendPhoto"):
			photos++
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	n.AllowedChats = []string{"99"}
	var handled []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, text string) *Reply {
			handled = append(handled, text)
			return &Reply{Text: "got " + text, Photo: []byte("png")}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"aapl", "msft"}, handled)
	assert.Equal(t, []string{"99:got aapl", "42:got msft"}, replies)
	assert.Equal(t, 2, photos)
}

func TestTelegramNotifier_Allowed(t *testing.T) {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.AllowedChats = []string{"99", "-100"}
	tests := []struct {
		chat string
		want bool
	}{
		{"42", true},
		{"99", true},
		{"-100", true},
		{"7", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.chat, func(t *testing.T) {
			assert.Equal(t, tt.want, n.allowed(tt.chat))
		})
	}
}

func testResult() *advisor.Result {
	row := model.Row{
		Bar:        model.Bar{Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), Close: 187.5},
		RSI:        model.Some(75),
		MACD:       model.Some(0.5),
		MACDSignal: model.Some(0.9),
	}
	th := strategy.DefaultThresholds()
	return &advisor.Result{
		Ticker:   "AAPL",
		Latest:   row,
		Signal:   model.SignalSell,
		Reason:   strategy.Reason(row, model.SignalSell, th),
		Readings: strategy.Readings(row, th),
		Range52w: &advisor.Range52w{High: 200, Low: 150, Position: 0.75},
	}
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(testResult())
	assert.Contains(t, msg, "<b>AAPL</b> | 2024-05-03")
	assert.Contains(t, msg, "Suggestion: Sell")
	assert.Contains(t, msg, "RSI=75.0 (overbought)")
	assert.Contains(t, msg, "position 75%")
}

func TestFormatScan(t *testing.T) {
	hold := testResult()
	hold.Ticker, hold.Signal = "MSFT", model.SignalHold
	msg := FormatScan([]*advisor.Result{testResult(), hold}, map[string]error{"ZZZ": model.ErrNotFound})
	assert.Contains(t, msg, "<b>AAPL</b> Sell @ 187.50")
	assert.NotContains(t, msg, "MSFT")
	assert.Contains(t, msg, "ZZZ</b>: No data found for the provided stock code.")

	quiet := FormatScan([]*advisor.Result{hold}, nil)
	assert.Contains(t, quiet, "No Buy/Sell signals across 1 ticker(s).")
	assert.NotContains(t, FormatError("<x>", errors.New("boom")), "<x>")
}
