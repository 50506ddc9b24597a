package recorder

import (
	"time"

	"StockAdvisor/internal/model"
)

// AnalysisRecord is one persisted analysis: the latest frame row of a ticker
// and the signal the classifier assigned to it.
type AnalysisRecord struct {
	ID         int64        `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	Ticker     string       `json:"ticker"`
	BarDate    time.Time    `json:"bar_date"`
	Close      float64      `json:"close"`
	RSI        model.Value  `json:"rsi"`
	ATR        model.Value  `json:"atr"`
	MACD       model.Value  `json:"macd"`
	MACDSignal model.Value  `json:"macd_signal"`
	StochK     model.Value  `json:"stoch_k"`
	StochD     model.Value  `json:"stoch_d"`
	Signal     model.Signal `json:"signal"`
	Source     string       `json:"source"` // cli, http, telegram, cron
	Note       string       `json:"note,omitempty"`
}

// NewAnalysisRecord builds a record from a frame row.
func NewAnalysisRecord(ticker string, row model.Row, sig model.Signal, source, note string) *AnalysisRecord {
	return &AnalysisRecord{
		Timestamp:  time.Now().UTC(),
		Ticker:     ticker,
		BarDate:    row.Date,
		Close:      row.Close,
		RSI:        row.RSI,
		ATR:        row.ATR,
		MACD:       row.MACD,
		MACDSignal: row.MACDSignal,
		StochK:     row.StochK,
		StochD:     row.StochD,
		Signal:     sig,
		Source:     source,
		Note:       note,
	}
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	// RecentAnalyses returns the newest records of ticker first.
	RecentAnalyses(ticker string, limit int) ([]AnalysisRecord, error)
	Close() error
}
