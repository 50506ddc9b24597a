package collector

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"StockAdvisor/internal/model"
)

// CSVFetcher reads bars from <Dir>/<SYMBOL>.csv files laid out like a
// yfinance export: Date,Open,High,Low,Close[,Adj Close][,Volume].
type CSVFetcher struct {
	Dir string
}

func NewCSVFetcher(dir string) *CSVFetcher { return &CSVFetcher{Dir: dir} }

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchDailyBars(_ context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	path := filepath.Join(f.Dir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "csv: %s", path)
		}
		return nil, errors.Wrap(model.ErrUpstream, err.Error())
	}
	defer file.Close()

	bars, err := ReadCSV(file)
	if err != nil {
		return nil, errors.Wrapf(model.ErrUpstream, "csv %s: %v", path, err)
	}

	from, to = model.Day(from), model.Day(to)
	out := bars[:0]
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ReadCSV parses bars with a header row. Column names are matched case-insensitively.
func ReadCSV(r io.Reader) ([]model.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("missing column %q", required)
		}
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		bar, ok, err := parseRecord(rec, cols)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if ok {
			bars = append(bars, bar)
		}
	}
	return bars, nil
}

func parseRecord(rec []string, cols map[string]int) (model.Bar, bool, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(model.DateLayout, field("date"))
	if err != nil {
		return model.Bar{}, false, err
	}

	var vals [4]float64
	for i, name := range []string{"open", "high", "low", "close"} {
		s := field(name)
		if s == "" || s == "null" {
			return model.Bar{}, false, nil // skip null bars
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, false, errors.Wrapf(err, "column %s", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Bar{}, false, nil
		}
		vals[i] = v
	}

	var volume float64
	if s := field("volume"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Bar{}, false, errors.Wrap(err, "column volume")
		}
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			volume = v
		}
	}

	return model.Bar{
		Date: model.Day(date), Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: volume,
	}, true, nil
}

// WriteCSV writes the series in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, series *model.Series) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, b := range series.Bars {
		if err := writer.Write([]string{
			b.Date.Format(model.DateLayout),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
