package model

import (
	"fmt"
	"math"
	"time"
)

// Bar represents a single daily price bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Validate checks the per-bar price invariants.
func (b Bar) Validate() error {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value on %s", ErrInvalidSeries, b.Date.Format(DateLayout))
		}
	}
	if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 || b.Volume < 0 {
		return fmt.Errorf("%w: negative value on %s", ErrInvalidSeries, b.Date.Format(DateLayout))
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.4f < low %.4f on %s", ErrInvalidSeries, b.High, b.Low, b.Date.Format(DateLayout))
	}
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("%w: high %.4f below open/close on %s", ErrInvalidSeries, b.High, b.Date.Format(DateLayout))
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("%w: low %.4f above open/close on %s", ErrInvalidSeries, b.Low, b.Date.Format(DateLayout))
	}
	return nil
}

// DateLayout is the calendar-day format used in logs, CSV files and reports.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series holds the chronological daily bars of one symbol.
type Series struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar. It panics on an empty series.
func (s *Series) Last() Bar { return s.Bars[len(s.Bars)-1] }

// Validate checks ordering (strictly increasing dates) and per-bar invariants.
func (s *Series) Validate() error {
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("%w: date %s not after %s", ErrInvalidSeries,
				b.Date.Format(DateLayout), s.Bars[i-1].Date.Format(DateLayout))
		}
	}
	return nil
}
