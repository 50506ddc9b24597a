package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"StockAdvisor/internal/calculator"
	"StockAdvisor/internal/collector"
	"StockAdvisor/internal/metrics"
	"StockAdvisor/internal/model"
	"StockAdvisor/internal/recorder"
	"StockAdvisor/internal/strategy"
)

var log = logrus.WithField("component", "advisor")

// MaxWindowYears bounds the per-request window.
const MaxWindowYears = 30

// ErrInvalidWindow means the requested window is outside 1..MaxWindowYears.
var ErrInvalidWindow = fmt.Errorf("window must be between 1 and %d years", MaxWindowYears)

// Request is one analysis request.
type Request struct {
	Ticker string
	Years  int    // 0 selects the service default
	Source string // cli, http, telegram, cron
}

// Result is the outcome of one analysis.
type Result struct {
	Ticker   string               `json:"ticker"`
	From     time.Time            `json:"from"`
	To       time.Time            `json:"to"`
	Frame    *model.Frame         `json:"-"`
	Latest   model.Row            `json:"latest"`
	Signal   model.Signal         `json:"signal"`
	Reason   string               `json:"reason"`
	Warnings []calculator.Warning `json:"warnings,omitempty"`
	History  []model.SignalPoint  `json:"history"`
	Readings []strategy.Reading   `json:"readings"`
	Range52w *Range52w            `json:"range_52w,omitempty"`
}

// Range52w is the 52-week trading range and where the last close sits in it.
type Range52w struct {
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Position float64 `json:"position"`
}

// Defined reports whether the classifier could produce a suggestion.
func (r *Result) Defined() bool { return r.Signal != model.SignalUndefined }

// Service runs the load, compute and classify flow for one ticker.
type Service struct {
	Collector   *collector.Collector
	Params      calculator.Params
	Thresholds  strategy.Thresholds
	WindowYears int
	Recorder    recorder.Recorder
	Metrics     *metrics.Metrics

	now func() time.Time
}

// NewService creates a Service with default parameters and a no-op recorder.
func NewService(c *collector.Collector) *Service {
	return &Service{
		Collector:   c,
		Params:      calculator.DefaultParams(),
		Thresholds:  strategy.DefaultThresholds(),
		WindowYears: 5,
		Recorder:    recorder.NewNoopRecorder(),
		now:         time.Now,
	}
}

func (s *Service) window(years int) (collector.Window, error) {
	if years == 0 {
		years = s.WindowYears
	}
	if years < 1 || years > MaxWindowYears {
		return collector.Window{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, years)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return collector.LastYears(now(), years), nil
}

// Analyze loads the ticker history, computes the indicator frame and
// classifies the latest row. Insufficient history is not an error: the
// result carries warnings and an undefined signal instead.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	res, err := s.analyze(ctx, req)
	if err != nil {
		s.Metrics.ObserveFailure(Kind(err))
		return nil, err
	}
	s.Metrics.ObserveSignal(res.Signal.String())
	for _, w := range res.Warnings {
		s.Metrics.ObserveWarning(w.Indicator)
	}
	s.record(res, req.Source)
	return res, nil
}

func (s *Service) analyze(ctx context.Context, req Request) (*Result, error) {
	w, err := s.window(req.Years)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	series, err := s.Collector.Collect(ctx, req.Ticker, w)
	if err != nil {
		return nil, err
	}
	s.Metrics.ObserveFetch(time.Since(start), series.Len())

	start = time.Now()
	frame, warnings, err := calculator.Compute(series, s.Params)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", series.Symbol, err)
	}
	s.Metrics.ObservePipeline(time.Since(start))
	for _, w := range warnings {
		log.Warnf("%s: %v", series.Symbol, w)
	}

	sig, err := strategy.ClassifyLatest(frame, s.Thresholds)
	if err != nil && !errors.Is(err, model.ErrUndefinedSignal) {
		return nil, err
	}
	latest, _ := frame.Last()

	res := &Result{
		Ticker:   series.Symbol,
		From:     w.From,
		To:       w.To,
		Frame:    frame,
		Latest:   latest,
		Signal:   sig,
		Reason:   strategy.Reason(latest, sig, s.Thresholds),
		Warnings: warnings,
		History:  strategy.History(frame, s.Thresholds),
		Readings: strategy.Readings(latest, s.Thresholds),
		Range52w: range52w(series),
	}
	log.Infof("%s: %d bars, signal %s", res.Ticker, frame.Len(), sig)
	return res, nil
}

func range52w(series *model.Series) *Range52w {
	high, low, err := calculator.Range(calculator.Highs(series.Bars), calculator.Lows(series.Bars), calculator.TradingDays52w)
	if err != nil {
		return nil
	}
	pos, err := calculator.RangePosition(series.Last().Close, high, low)
	if err != nil {
		return nil
	}
	return &Range52w{High: high, Low: low, Position: pos}
}

// record persists the result. Storage failures are logged, never returned.
func (s *Service) record(res *Result, source string) {
	if s.Recorder == nil {
		return
	}
	note := ""
	if len(res.Warnings) > 0 {
		note = fmt.Sprintf("%d indicator(s) in warm-up", len(res.Warnings))
	}
	rec := recorder.NewAnalysisRecord(res.Ticker, res.Latest, res.Signal, source, note)
	if err := s.Recorder.RecordAnalysis(rec); err != nil {
		log.WithError(err).Errorf("failed to record analysis of %s", res.Ticker)
	}
}

// History returns the recorded analyses of ticker, newest first.
func (s *Service) History(ticker string, limit int) ([]recorder.AnalysisRecord, error) {
	ticker = collector.NormalizeSymbol(ticker)
	if ticker == "" {
		return nil, model.ErrInvalidTicker
	}
	if s.Recorder == nil {
		return nil, nil
	}
	return s.Recorder.RecentAnalyses(ticker, limit)
}
