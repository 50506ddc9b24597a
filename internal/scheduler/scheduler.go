package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"StockAdvisor/internal/advisor"
	"StockAdvisor/internal/chart"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/notifier"
)

var log = logrus.WithField("component", "scheduler")

// Analyzer runs one ticker analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req advisor.Request) (*advisor.Result, error)
}

// Sender delivers notifications to the configured chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist scan on a cron schedule and answers bot
// messages.
type Scheduler struct {
	Cron      *cron.Cron
	Advisor   Analyzer
	Notifier  Sender
	Watchlist []string
	Chart     chart.Options
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. tn may be nil when Telegram is disabled.
func NewScheduler(ctx context.Context, a Analyzer, tn Sender, watchlist []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Advisor:   a,
		Notifier:  tn,
		Watchlist: watchlist,
		Chart:     chart.DefaultOptions(),
		Ctx:       ctx,
	}
}

// Register registers the watchlist scan.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately (for manual trigger / run-on-start).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	if len(s.Watchlist) == 0 {
		log.Debug("watchlist empty, skipping scan")
		return
	}
	results, failures := s.Scan(s.Ctx)
	s.trySend(notifier.FormatScan(results, failures))
}

// Scan analyzes every watchlist ticker. A failing ticker never aborts the scan.
func (s *Scheduler) Scan(ctx context.Context) ([]*advisor.Result, map[string]error) {
	log.Infof("running watchlist scan (%d tickers)", len(s.Watchlist))
	var results []*advisor.Result
	failures := map[string]error{}
	for _, ticker := range s.Watchlist {
		if ctx.Err() != nil {
			break
		}
		res, err := s.Advisor.Analyze(ctx, advisor.Request{Ticker: ticker, Source: "cron"})
		if err != nil {
			log.WithError(err).Errorf("scan %s", ticker)
			failures[ticker] = err
			continue
		}
		results = append(results, res)
	}
	return results, failures
}

// HandleCommand processes a bot message and returns the reply. Any text that
// is not a command is analyzed as a ticker.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) *notifier.Reply {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return &notifier.Reply{Text: notifier.FormatHelp()}
	}
	switch cmd := strings.ToLower(fields[0]); cmd {
	case "/start", "/help":
		return &notifier.Reply{Text: notifier.FormatHelp()}
	case "/scan":
		if len(s.Watchlist) == 0 {
			return &notifier.Reply{Text: "Watchlist is empty."}
		}
		results, failures := s.Scan(ctx)
		return &notifier.Reply{Text: notifier.FormatScan(results, failures)}
	case "/analyze", "/a":
		if len(fields) < 2 {
			return &notifier.Reply{Text: notifier.FormatError("", model.ErrInvalidTicker)}
		}
		return s.analyzeReply(ctx, fields[1])
	default:
		if strings.HasPrefix(cmd, "/") {
			return &notifier.Reply{Text: notifier.FormatHelp()}
		}
		return s.analyzeReply(ctx, fields[0])
	}
}

func (s *Scheduler) analyzeReply(ctx context.Context, ticker string) *notifier.Reply {
	res, err := s.Advisor.Analyze(ctx, advisor.Request{Ticker: ticker, Source: "telegram"})
	if err != nil {
		return &notifier.Reply{Text: notifier.FormatError(ticker, err)}
	}
	reply := &notifier.Reply{Text: notifier.FormatReport(res)}
	var buf bytes.Buffer
	if err := chart.Indicators(&buf, res.Frame, s.Chart); err != nil {
		log.WithError(err).Warnf("no chart for %s", res.Ticker)
	} else {
		reply.Photo = buf.Bytes()
	}
	return reply
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Info(text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.WithError(err).Error("send notification")
	}
}
