// Package config provides configuration management for the chart analyzer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"chart-analyzer/internal/analysis"
	apperrors "chart-analyzer/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Data     DataConfig     `mapstructure:"data"`
	UI       UIConfig       `mapstructure:"ui"`
}

// AnalysisConfig holds pattern detection tuning parameters.
type AnalysisConfig struct {
	ProminenceTolerance   float64            `mapstructure:"prominence_tolerance"`
	MinSeparation         int                `mapstructure:"min_separation"`
	LevelTolerance        float64            `mapstructure:"level_tolerance"`
	MinTouches            int                `mapstructure:"min_touches"`
	ShoulderTolerance     float64            `mapstructure:"shoulder_tolerance"`
	DoubleTolerance       float64            `mapstructure:"double_tolerance"`
	MinDepth              float64            `mapstructure:"min_depth"`
	MinPoleMove           float64            `mapstructure:"min_pole_move"`
	LookbackWindow        int                `mapstructure:"lookback_window"`
	DecisivenessThreshold float64            `mapstructure:"decisiveness_threshold"`
	CategoryWeights       map[string]float64 `mapstructure:"category_weights"`
}

// DataConfig holds candle storage configuration.
type DataConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	// MaxStaleDays marks stored candles older than this as stale.
	MaxStaleDays int `mapstructure:"max_stale_days"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chart-analyzer"
	}
	return filepath.Join(home, ".config", "chart-analyzer")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file yields the defaults rather than an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	def := analysis.DefaultConfig()

	v.SetDefault("analysis.prominence_tolerance", def.ProminenceTolerance)
	v.SetDefault("analysis.min_separation", def.MinSeparation)
	v.SetDefault("analysis.level_tolerance", def.LevelTolerance)
	v.SetDefault("analysis.min_touches", def.MinTouches)
	v.SetDefault("analysis.shoulder_tolerance", def.ShoulderTolerance)
	v.SetDefault("analysis.double_tolerance", def.DoubleTolerance)
	v.SetDefault("analysis.min_depth", def.MinDepth)
	v.SetDefault("analysis.min_pole_move", def.MinPoleMove)
	v.SetDefault("analysis.lookback_window", def.LookbackWindow)
	v.SetDefault("analysis.decisiveness_threshold", def.DecisivenessThreshold)

	weights := make(map[string]float64, len(def.CategoryWeights))
	for cat, w := range def.CategoryWeights {
		weights[string(cat)] = w
	}
	v.SetDefault("analysis.category_weights", weights)

	v.SetDefault("data.database_path", filepath.Join(configDir, "candles.db"))
	v.SetDefault("data.max_stale_days", 3)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")
}

// Validate checks configuration for invalid values.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.ProminenceTolerance < 0 || a.ProminenceTolerance >= 1 {
		return apperrors.NewValidationError("analysis.prominence_tolerance", a.ProminenceTolerance, "must be in [0, 1)")
	}
	if a.LevelTolerance < 0 || a.LevelTolerance >= 1 {
		return apperrors.NewValidationError("analysis.level_tolerance", a.LevelTolerance, "must be in [0, 1)")
	}
	if a.MinTouches < 2 {
		return apperrors.NewValidationError("analysis.min_touches", a.MinTouches, "must be at least 2")
	}
	if a.MinSeparation < 1 {
		return apperrors.NewValidationError("analysis.min_separation", a.MinSeparation, "must be at least 1")
	}
	if a.LookbackWindow < 10 {
		return apperrors.NewValidationError("analysis.lookback_window", a.LookbackWindow, "must be at least 10")
	}
	if a.DecisivenessThreshold < 0 || a.DecisivenessThreshold >= 1 {
		return apperrors.NewValidationError("analysis.decisiveness_threshold", a.DecisivenessThreshold, "must be in [0, 1)")
	}
	for name, w := range a.CategoryWeights {
		if w <= 0 {
			return apperrors.NewValidationError("analysis.category_weights."+name, w, "must be positive")
		}
	}
	if c.Data.MaxStaleDays < 0 {
		return apperrors.NewValidationError("data.max_stale_days", c.Data.MaxStaleDays, "must not be negative")
	}
	return nil
}

// AnalysisConfig converts the file representation into the value passed to
// analysis calls.
func (c *Config) AnalysisConfig() analysis.Config {
	weights := make(map[analysis.Category]float64, len(c.Analysis.CategoryWeights))
	for name, w := range c.Analysis.CategoryWeights {
		weights[analysis.Category(name)] = w
	}
	return analysis.Config{
		ProminenceTolerance:   c.Analysis.ProminenceTolerance,
		MinSeparation:         c.Analysis.MinSeparation,
		LevelTolerance:        c.Analysis.LevelTolerance,
		MinTouches:            c.Analysis.MinTouches,
		ShoulderTolerance:     c.Analysis.ShoulderTolerance,
		DoubleTolerance:       c.Analysis.DoubleTolerance,
		MinDepth:              c.Analysis.MinDepth,
		MinPoleMove:           c.Analysis.MinPoleMove,
		LookbackWindow:        c.Analysis.LookbackWindow,
		DecisivenessThreshold: c.Analysis.DecisivenessThreshold,
		CategoryWeights:       weights,
	}.Normalize()
}
