package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"StockAdvisor/internal/model"
)

var log = logrus.WithField("component", "recorder")

// MaxRecentLimit caps RecentAnalyses.
const MaxRecentLimit = 500

// SQLiteRecorder persists analyses to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			ticker      TEXT NOT NULL,
			bar_date    TEXT NOT NULL,
			close       REAL,
			rsi         REAL,
			atr         REAL,
			macd        REAL,
			macd_signal REAL,
			stoch_k     REAL,
			stoch_d     REAL,
			signal      TEXT,
			source      TEXT,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker_ts ON analyses(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an undefined indicator cell to SQL NULL.
func nullable(v model.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float, Valid: v.Valid}
}

func value(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Value{}
	}
	return model.Some(n.Float64)
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := r.db.Exec(`INSERT INTO analyses
		(timestamp, ticker, bar_date, close, rsi, atr, macd, macd_signal,
		 stoch_k, stoch_d, signal, source, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), rec.Ticker, rec.BarDate.Format(model.DateLayout), rec.Close,
		nullable(rec.RSI), nullable(rec.ATR), nullable(rec.MACD), nullable(rec.MACDSignal),
		nullable(rec.StochK), nullable(rec.StochD),
		rec.Signal.String(), rec.Source, rec.Note,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

func (r *SQLiteRecorder) RecentAnalyses(ticker string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 || limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, ticker, bar_date, close,
		rsi, atr, macd, macd_signal, stoch_k, stoch_d, signal, source, note
		FROM analyses WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			rec                                     AnalysisRecord
			ts                                      int64
			barDate, signal                         string
			source, note                            sql.NullString
			rsi, atr, macd, macdSig, stochK, stochD sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Ticker, &barDate, &rec.Close,
			&rsi, &atr, &macd, &macdSig, &stochK, &stochD, &signal, &source, &note); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		if d, err := time.Parse(model.DateLayout, barDate); err == nil {
			rec.BarDate = d
		}
		rec.RSI, rec.ATR = value(rsi), value(atr)
		rec.MACD, rec.MACDSignal = value(macd), value(macdSig)
		rec.StochK, rec.StochD = value(stochK), value(stochD)
		rec.Signal = model.ParseSignal(signal)
		rec.Source, rec.Note = source.String, note.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
