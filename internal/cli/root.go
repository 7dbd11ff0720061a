package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chart-analyzer/internal/analysis/scoring"
	"chart-analyzer/internal/config"
	"chart-analyzer/internal/logging"
	"chart-analyzer/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
	Engine *scoring.Engine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Engine: scoring.NewEngine(cfg.AnalysisConfig(), logger),
	}

	dbPath := cfg.Data.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "candles.db")
	}
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, persistence unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "chart-analyzer",
		Short: "Chart pattern analyzer for OHLCV candle data",
		Long: `Chart Analyzer detects technical chart patterns in OHLCV candle series
and produces confidence-scored trading signals.

It recognizes reversal patterns (head and shoulders, double tops and
bottoms), continuation patterns (triangles, flags, pennants), support and
resistance breakouts, and candlestick formations, then aggregates them
into a single overall signal per instrument.

Use 'chart-analyzer help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/chart-analyzer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newDataCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Chart Analyzer v%s\n", Version)
			}
		},
	}
}
