// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)

	// Analysis results
	SaveAnalysis(ctx context.Context, result analysis.AnalysisResult) error
	GetLatestAnalysis(ctx context.Context, symbol string) (*analysis.AnalysisResult, error)
	GetAnalysisHistory(ctx context.Context, symbol string, limit int) ([]analysis.AnalysisResult, error)

	// Watchlist
	AddToWatchlist(ctx context.Context, symbol, listName string) error
	RemoveFromWatchlist(ctx context.Context, symbol, listName string) error
	GetWatchlist(ctx context.Context, listName string) ([]string, error)

	Close() error
}
