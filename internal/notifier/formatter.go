package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/model"
)

func signalIcon(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	case model.SignalHold:
		return "⚪"
	default:
		return "⏳"
	}
}

// FormatReport formats one analysis result into a Telegram message.
func FormatReport(res *advisor.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(res.Ticker), res.Latest.Date.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", res.Latest.Close))
	if rg := res.Range52w; rg != nil {
		b.WriteString(fmt.Sprintf("52w: %.2f ~ %.2f (position %.0f%%)\n", rg.Low, rg.High, rg.Position*100))
	}

	b.WriteString("\n📈 <b>Indicators:</b>\n")
	for _, r := range res.Readings {
		b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(r.Commentary)))
	}

	b.WriteString(fmt.Sprintf("\n%s <b>Suggestion: %s</b>\n", signalIcon(res.Signal), res.Signal))
	b.WriteString(html.EscapeString(res.Reason) + "\n")

	if n := len(res.History); n > 0 {
		last := res.History[n-1]
		b.WriteString(fmt.Sprintf("\nLast %s signal: %s @ %.2f\n", last.Signal, last.Date.Format(model.DateLayout), last.Close))
	}
	for _, w := range res.Warnings {
		b.WriteString(fmt.Sprintf("⚠️ %s\n", html.EscapeString(w.Error())))
	}
	return b.String()
}

// FormatError formats a failed analysis for the user.
func FormatError(ticker string, err error) string {
	if ticker == "" {
		return "❌ " + html.EscapeString(advisor.UserMessage(err))
	}
	return fmt.Sprintf("❌ <b>%s</b>: %s", html.EscapeString(ticker), html.EscapeString(advisor.UserMessage(err)))
}

// FormatScan summarizes a watchlist scan. Only actionable results and
// failures are listed.
func FormatScan(results []*advisor.Result, failures map[string]error) string {
	var b strings.Builder
	b.WriteString("🔎 <b>Watchlist scan</b>\n\n")
	actionable := 0
	for _, r := range results {
		if r.Signal != model.SignalBuy && r.Signal != model.SignalSell {
			continue
		}
		actionable++
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s @ %.2f\n  %s\n", signalIcon(r.Signal),
			html.EscapeString(r.Ticker), r.Signal, r.Latest.Close, html.EscapeString(r.Reason)))
	}
	if actionable == 0 {
		b.WriteString(fmt.Sprintf("No Buy/Sell signals across %d ticker(s).\n", len(results)))
	}
	for ticker, err := range failures {
		b.WriteString(FormatError(ticker, err) + "\n")
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return `🤖 <b>Stock Advisor</b>

Send a stock code to analyze it, e.g. <code>AAPL</code> or <code>0005.HK</code>.

/scan - analyze the watchlist now
/help - show this message`
}
