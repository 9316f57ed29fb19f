package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chart_requests (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			period        TEXT NOT NULL,
			session_date  TEXT,
			reason        TEXT,
			fallback_used INTEGER,
			bars          INTEGER,
			status        TEXT,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chart_ts ON chart_requests(timestamp)`,

		`CREATE TABLE IF NOT EXISTS session_digests (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			session_date TEXT NOT NULL,
			open         REAL,
			close        REAL,
			high         REAL,
			low          REAL,
			change_pct   REAL,
			volume       INTEGER,
			bars         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_ticker ON session_digests(ticker, session_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func (r *SQLiteRecorder) RecordChart(evt *ChartEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO chart_requests
		(timestamp, ticker, period, session_date, reason, fallback_used, bars, status, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Ticker, evt.Period, formatDate(evt.SessionDate), evt.Reason,
		evt.FallbackUsed, evt.Bars, evt.Status, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordDigest(d *SessionDigest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO session_digests
		(timestamp, ticker, session_date, open, close, high, low, change_pct, volume, bars)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), d.Ticker, formatDate(d.SessionDate),
		d.Open, d.Close, d.High, d.Low, d.ChangePct, d.Volume, d.Bars,
	)
	return err
}

// countCharts returns how many chart requests have been recorded for ticker.
func (r *SQLiteRecorder) countCharts(ticker string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM chart_requests WHERE ticker = ?`, ticker).Scan(&n)
	return n, err
}

// LatestDigest returns the most recent digest stored for ticker, or nil.
func (r *SQLiteRecorder) LatestDigest(ticker string) (*SessionDigest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		d    SessionDigest
		date string
	)
	err := r.db.QueryRow(`SELECT ticker, session_date, open, close, high, low, change_pct, volume, bars
		FROM session_digests WHERE ticker = ? ORDER BY id DESC LIMIT 1`, ticker).
		Scan(&d.Ticker, &date, &d.Open, &d.Close, &d.High, &d.Low, &d.ChangePct, &d.Volume, &d.Bars)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.SessionDate, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("parse session date %q: %w", date, err)
	}
	return &d, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
