package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chart-analyzer/internal/analysis"
	apperrors "chart-analyzer/internal/errors"
	"chart-analyzer/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, timestamp)
	);

	-- Analysis results, patterns and summary stored as JSON
	CREATE TABLE IF NOT EXISTS analysis_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		signal TEXT NOT NULL,
		confidence REAL NOT NULL,
		patterns_detected INTEGER NOT NULL,
		top_patterns TEXT NOT NULL,
		category_summary TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Watchlists
	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		list_name TEXT NOT NULL DEFAULT 'default',
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, list_name)
	);

	CREATE INDEX IF NOT EXISTS idx_candles_symbol ON candles(symbol, timeframe, timestamp);
	CREATE INDEX IF NOT EXISTS idx_analysis_symbol ON analysis_results(symbol, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandles saves candles to the database.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCandles retrieves candles from the database ordered by timestamp.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, symbol, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}
	return candles, nil
}

// GetCandlesFreshness returns the timestamp of the most recent candle.
func (s *SQLiteStore) GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var timestamp sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(timestamp) FROM candles WHERE symbol = ? AND timeframe = ?
	`, symbol, timeframe).Scan(&timestamp)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	if !timestamp.Valid {
		return time.Time{}, nil
	}
	return timestamp.Time, nil
}

// SaveAnalysis stores one analysis result.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, result analysis.AnalysisResult) error {
	topPatterns, err := json.Marshal(result.TopPatterns)
	if err != nil {
		return fmt.Errorf("failed to marshal top patterns: %w", err)
	}
	categorySummary, err := json.Marshal(result.CategorySummary)
	if err != nil {
		return fmt.Errorf("failed to marshal category summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (symbol, signal, confidence, patterns_detected, top_patterns, category_summary)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.InstrumentID, string(result.OverallSignal), result.OverallConfidence,
		result.PatternsDetected, string(topPatterns), string(categorySummary))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetLatestAnalysis returns the most recent stored result for a symbol.
func (s *SQLiteStore) GetLatestAnalysis(ctx context.Context, symbol string) (*analysis.AnalysisResult, error) {
	results, err := s.GetAnalysisHistory(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperrors.NewDataError("analysis", symbol, "no stored results", apperrors.ErrDataNotFound)
	}
	return &results[0], nil
}

// GetAnalysisHistory returns stored results for a symbol, newest first.
func (s *SQLiteStore) GetAnalysisHistory(ctx context.Context, symbol string, limit int) ([]analysis.AnalysisResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, signal, confidence, patterns_detected, top_patterns, category_summary
		FROM analysis_results
		WHERE symbol = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var results []analysis.AnalysisResult
	for rows.Next() {
		var r analysis.AnalysisResult
		var signal, topPatterns, categorySummary string
		if err := rows.Scan(&r.InstrumentID, &signal, &r.OverallConfidence, &r.PatternsDetected, &topPatterns, &categorySummary); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		r.OverallSignal = analysis.Signal(signal)
		if err := json.Unmarshal([]byte(topPatterns), &r.TopPatterns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal top patterns: %w", err)
		}
		if err := json.Unmarshal([]byte(categorySummary), &r.CategorySummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category summary: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis history: %w", err)
	}
	return results, nil
}

// AddToWatchlist adds a symbol to a named watchlist.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol, listName string) error {
	if listName == "" {
		listName = "default"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist (symbol, list_name) VALUES (?, ?)
	`, symbol, listName)
	if err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from a named watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol, listName string) error {
	if listName == "" {
		listName = "default"
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist WHERE symbol = ? AND list_name = ?
	`, symbol, listName)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return nil
}

// GetWatchlist returns the symbols in a named watchlist.
func (s *SQLiteStore) GetWatchlist(ctx context.Context, listName string) ([]string, error) {
	if listName == "" {
		listName = "default"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist WHERE list_name = ? ORDER BY added_at
	`, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
