package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chart-analyzer/internal/report"
)

// newDataCmd creates the candle data management command group.
func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Candle data management",
		Long:  "Import and inspect locally stored candle data.",
	}

	var timeframe string
	importCmd := &cobra.Command{
		Use:   "import <symbol> <csv-file>",
		Short: "Import candles from a CSV file into the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)

			candles, err := report.ReadCandles(args[1])
			if err != nil {
				return err
			}
			if err := app.Store.SaveCandles(cmd.Context(), symbol, timeframe, candles); err != nil {
				return err
			}
			output.Success("Imported %d candles for %s", len(candles), symbol)
			return nil
		},
	}
	importCmd.Flags().StringVar(&timeframe, "timeframe", defaultTimeframe, "candle timeframe")
	cmd.AddCommand(importCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "freshness <symbol>",
		Short: "Show the timestamp of the latest stored candle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)

			latest, err := app.Store.GetCandlesFreshness(cmd.Context(), symbol, defaultTimeframe)
			if err != nil {
				return err
			}
			if latest.IsZero() {
				output.Warning("No candles stored for %s", symbol)
				return nil
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"symbol": symbol, "latest": latest.Format("2006-01-02")})
			}
			output.Printf("%s: latest candle %s\n", symbol, latest.Format("2006-01-02"))
			return nil
		},
	})

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history <symbol>",
		Short: "Show stored analysis results for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol := strings.ToUpper(args[0])
			output := NewOutput(cmd)

			results, err := app.Store.GetAnalysisHistory(cmd.Context(), symbol, limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(results)
			}
			if len(results) == 0 {
				output.Warning("No stored results for %s", symbol)
				return nil
			}
			table := NewTable(output, "SIGNAL", "CONF", "PATTERNS")
			for _, r := range results {
				table.AddRow(
					output.FormatSignal(r.OverallSignal),
					output.FormatConfidence(r.OverallConfidence),
					fmt.Sprintf("%d", r.PatternsDetected),
				)
			}
			table.Render()
			return nil
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 10, "number of results to show")
	cmd.AddCommand(historyCmd)

	return cmd
}

// newWatchlistCmd creates the watchlist management command group.
func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Watchlist management",
	}

	var listName string
	cmd.PersistentFlags().StringVar(&listName, "list", "default", "watchlist name")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a symbol to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol := strings.ToUpper(args[0])
			if err := app.Store.AddToWatchlist(cmd.Context(), symbol, listName); err != nil {
				return err
			}
			NewOutput(cmd).Success("Added %s to %s", symbol, listName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol := strings.ToUpper(args[0])
			if err := app.Store.RemoveFromWatchlist(cmd.Context(), symbol, listName); err != nil {
				return err
			}
			NewOutput(cmd).Success("Removed %s from %s", symbol, listName)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			output := NewOutput(cmd)
			symbols, err := app.Store.GetWatchlist(cmd.Context(), listName)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string][]string{listName: symbols})
			}
			if len(symbols) == 0 {
				output.Warning("Watchlist %q is empty", listName)
				return nil
			}
			for _, s := range symbols {
				output.Println(s)
			}
			return nil
		},
	})

	return cmd
}
