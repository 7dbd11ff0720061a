package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/models"
	"chart-analyzer/internal/report"
)

const defaultTimeframe = "day"

// newAnalyzeCmd creates the single-instrument analysis command.
func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		filePath string
		days     int
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Analyze chart patterns for one instrument",
		Long: `Analyze runs all pattern detectors over an instrument's candle series
and prints the aggregated signal. Candles come from the local store by
default, or from a CSV file given with --file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)

			candles, err := app.loadCandles(cmd, symbol, filePath, days)
			if err != nil {
				return err
			}

			result, err := app.Engine.Analyze(symbol, candles)
			if err != nil {
				return err
			}

			if save && app.Store != nil {
				if err := app.Store.SaveAnalysis(cmd.Context(), result); err != nil {
					app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to save analysis")
				}
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "read candles from a CSV file instead of the store")
	cmd.Flags().IntVar(&days, "days", 365, "days of history to load from the store")
	cmd.Flags().BoolVar(&save, "save", false, "save the result to the local store")
	return cmd
}

// newScanCmd creates the multi-instrument scan command.
func newScanCmd(app *App) *cobra.Command {
	var (
		listName string
		days     int
		workers  int
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Scan multiple instruments for chart patterns",
		Long: `Scan analyzes several instruments in parallel and prints one summary
row per symbol. With no arguments it scans the configured watchlist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := make([]string, 0, len(args))
			for _, a := range args {
				symbols = append(symbols, strings.ToUpper(a))
			}
			if len(symbols) == 0 {
				if app.Store == nil {
					return fmt.Errorf("no symbols given and store unavailable")
				}
				var err error
				symbols, err = app.Store.GetWatchlist(cmd.Context(), listName)
				if err != nil {
					return err
				}
				if len(symbols) == 0 {
					output.Warning("Watchlist %q is empty", listName)
					return nil
				}
			}

			type scanItem struct {
				result analysis.AnalysisResult
				err    error
			}
			items := make([]scanItem, len(symbols))

			p := pool.New().WithMaxGoroutines(workers)
			for i, symbol := range symbols {
				i, symbol := i, symbol
				p.Go(func() {
					candles, err := app.loadCandles(cmd, symbol, "", days)
					if err != nil {
						items[i].err = err
						return
					}
					items[i].result, items[i].err = app.Engine.Analyze(symbol, candles)
				})
			}
			p.Wait()

			var results []analysis.AnalysisResult
			for i, item := range items {
				if item.err != nil {
					app.Logger.Warn().Err(item.err).Str("symbol", symbols[i]).Msg("scan failed for symbol")
					continue
				}
				results = append(results, item.result)
			}

			if outPath != "" {
				if err := report.WriteResults(outPath, results); err != nil {
					return err
				}
				output.Success("Report written to %s", outPath)
			}

			if output.IsJSON() {
				return output.JSON(results)
			}

			color.Cyan("📊 Pattern Scan (%d symbols)", len(symbols))
			table := NewTable(output, "SYMBOL", "SIGNAL", "CONF", "PATTERNS", "TOP PATTERN")
			for _, r := range results {
				top := "-"
				if len(r.TopPatterns) > 0 {
					top = r.TopPatterns[0].Name
				}
				table.AddRow(
					r.InstrumentID,
					output.FormatSignal(r.OverallSignal),
					output.FormatConfidence(r.OverallConfidence),
					fmt.Sprintf("%d", r.PatternsDetected),
					top,
				)
			}
			table.Render()

			if failed := len(symbols) - len(results); failed > 0 {
				output.Warning("%d symbol(s) failed, see log for details", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listName, "watchlist", "default", "watchlist to scan when no symbols are given")
	cmd.Flags().IntVar(&days, "days", 365, "days of history to load from the store")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of parallel workers")
	cmd.Flags().StringVar(&outPath, "out", "", "write results to a CSV report")
	return cmd
}

// loadCandles reads the series for one symbol from a CSV file or the store.
func (app *App) loadCandles(cmd *cobra.Command, symbol, filePath string, days int) ([]models.Candle, error) {
	if filePath != "" {
		return report.ReadCandles(filePath)
	}
	if app.Store == nil {
		return nil, fmt.Errorf("store unavailable, use --file to analyze a CSV series")
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	candles, err := app.Store.GetCandles(cmd.Context(), symbol, defaultTimeframe, from, to)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles stored for %s, import data first", symbol)
	}

	if app.Config.Data.MaxStaleDays > 0 {
		stale := time.Now().AddDate(0, 0, -app.Config.Data.MaxStaleDays)
		if candles[len(candles)-1].Timestamp.Before(stale) {
			app.Logger.Warn().Str("symbol", symbol).
				Time("latest", candles[len(candles)-1].Timestamp).
				Msg("stored candles are stale")
		}
	}
	return candles, nil
}

// printResult renders one analysis result for the terminal.
func printResult(output *Output, result analysis.AnalysisResult) {
	color.Cyan("📈 %s", result.InstrumentID)
	output.Printf("Signal:     %s\n", output.FormatSignal(result.OverallSignal))
	output.Printf("Confidence: %s\n", output.FormatConfidence(result.OverallConfidence))
	output.Printf("Patterns:   %d\n", result.PatternsDetected)

	if len(result.TopPatterns) > 0 {
		output.Println()
		output.Info("Top patterns:")
		for _, p := range result.TopPatterns {
			output.Printf("  %-22s %-12s %s %5.1f  %s\n",
				p.Name, p.Category, output.FormatSignal(p.Signal), p.Confidence, p.Description)
		}
	}

	if len(result.CategorySummary) > 0 {
		output.Println()
		output.Info("By category:")
		for _, cat := range analysis.Categories() {
			s, ok := result.CategorySummary[cat]
			if !ok {
				continue
			}
			output.Printf("  %-14s %d detected, dominant %s\n", cat, s.Count, s.DominantSignal)
		}
	}
}
