// Package report handles CSV import of candle data and CSV export of
// analysis results.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"chart-analyzer/internal/analysis"
	apperrors "chart-analyzer/internal/errors"
	"chart-analyzer/internal/models"
)

// ResultRow is one analysis result flattened for CSV export.
type ResultRow struct {
	Symbol     string  `csv:"symbol"`
	Signal     string  `csv:"signal"`
	Confidence float64 `csv:"confidence"`
	Patterns   int     `csv:"patterns_detected"`
	TopPattern string  `csv:"top_pattern"`
	Categories string  `csv:"categories"`
}

// candleRow is the CSV representation of one OHLCV bar.
type candleRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// WriteResults writes analysis results to a CSV file, one row per
// instrument, in the order given.
func WriteResults(path string, results []analysis.AnalysisResult) error {
	rows := make([]ResultRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, toRow(r))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func toRow(r analysis.AnalysisResult) ResultRow {
	top := ""
	if len(r.TopPatterns) > 0 {
		top = r.TopPatterns[0].Name
	}

	cats := make([]string, 0, len(r.CategorySummary))
	for cat, s := range r.CategorySummary {
		cats = append(cats, fmt.Sprintf("%s:%d", cat, s.Count))
	}
	sort.Strings(cats)

	return ResultRow{
		Symbol:     r.InstrumentID,
		Signal:     string(r.OverallSignal),
		Confidence: r.OverallConfidence,
		Patterns:   r.PatternsDetected,
		TopPattern: top,
		Categories: strings.Join(cats, " "),
	}
}

// ReadCandles loads an OHLCV series from a CSV file with columns
// date,open,high,low,close,volume. Dates parse as 2006-01-02 or RFC 3339.
func ReadCandles(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open candle file: %w", err)
	}
	defer f.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse candle file: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := parseDate(row.Date)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidSeries, "row %d: bad date %q", i+1, row.Date)
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}

	if err := models.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
