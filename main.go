package main

import (
	"fmt"
	"os"

	"chart-analyzer/internal/cli"
	"chart-analyzer/internal/config"
	"chart-analyzer/internal/logging"
)

func main() {
	logger := logging.NewLogger()

	configDir := ""
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configDir = os.Args[i+1]
		}
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
