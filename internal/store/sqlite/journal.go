package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the session journal.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/session.db"
}

// WatchlistEntry records how a symbol joined the day's watchlist.
type WatchlistEntry struct {
	Date     string // trading day, YYYY-MM-DD
	Symbol   string
	Source   string // "report" or "strong"
	RefPrice float64
	AddedAt  time.Time
}

// CycleSummary records one completed evaluation cycle.
type CycleSummary struct {
	TS           time.Time
	Symbols      int
	Signals      int
	CeilingSkips int
	Insufficient int
	Duration     time.Duration
}

// Journal persists the day's watchlist and scan-cycle summaries so a
// session can be reviewed after the fact.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the journal database, enabling WAL mode and creating the
// parent directory and schema if needed.
func New(cfg Config) (*Journal, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS watchlist_entries (
			date      TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			source    TEXT NOT NULL,
			ref_price REAL NOT NULL,
			added_at  INTEGER NOT NULL,
			PRIMARY KEY (date, symbol)
		);

		CREATE TABLE IF NOT EXISTS scan_cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			ts            INTEGER NOT NULL,
			symbols       INTEGER NOT NULL,
			signals       INTEGER NOT NULL,
			ceiling_skips INTEGER NOT NULL,
			insufficient  INTEGER NOT NULL,
			duration_ms   INTEGER NOT NULL
		);
	`)
	return err
}

// RecordWatchlist inserts the given entries. A symbol already journaled
// for that date keeps its original row, matching the rule that a
// reference price is recorded once and never overwritten.
func (j *Journal) RecordWatchlist(ctx context.Context, entries []WatchlistEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO watchlist_entries (date, symbol, source, ref_price, added_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Date, e.Symbol, e.Source, e.RefPrice, e.AddedAt.Unix()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordCycle appends one scan-cycle summary.
func (j *Journal) RecordCycle(ctx context.Context, c CycleSummary) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO scan_cycles (ts, symbols, signals, ceiling_skips, insufficient, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.TS.Unix(), c.Symbols, c.Signals, c.CeilingSkips, c.Insufficient, c.Duration.Milliseconds())
	return err
}

// Watchlist returns the journaled entries for a trading day, ordered by
// symbol.
func (j *Journal) Watchlist(ctx context.Context, date string) ([]WatchlistEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT date, symbol, source, ref_price, added_at
		FROM watchlist_entries WHERE date = ? ORDER BY symbol
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WatchlistEntry
	for rows.Next() {
		var e WatchlistEntry
		var added int64
		if err := rows.Scan(&e.Date, &e.Symbol, &e.Source, &e.RefPrice, &added); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(added, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }
