package config

import (
	"os"
	"path/filepath"
	"testing"

	"chart-analyzer/internal/analysis"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := analysis.DefaultConfig()
	if cfg.Analysis.ProminenceTolerance != def.ProminenceTolerance {
		t.Errorf("prominence_tolerance = %v, want default %v",
			cfg.Analysis.ProminenceTolerance, def.ProminenceTolerance)
	}
	if cfg.Analysis.MinTouches != def.MinTouches {
		t.Errorf("min_touches = %d, want default %d", cfg.Analysis.MinTouches, def.MinTouches)
	}
	if !cfg.UI.ColorEnabled {
		t.Error("color_enabled should default to true")
	}
	if cfg.Data.MaxStaleDays != 3 {
		t.Errorf("max_stale_days = %d, want 3", cfg.Data.MaxStaleDays)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[analysis]
min_touches = 4
level_tolerance = 0.03

[analysis.category_weights]
reversal = 2.0

[ui]
color_enabled = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.MinTouches != 4 {
		t.Errorf("min_touches = %d, want 4", cfg.Analysis.MinTouches)
	}
	if cfg.Analysis.LevelTolerance != 0.03 {
		t.Errorf("level_tolerance = %v, want 0.03", cfg.Analysis.LevelTolerance)
	}
	if cfg.UI.ColorEnabled {
		t.Error("color_enabled should be false")
	}

	ac := cfg.AnalysisConfig()
	if ac.Weight(analysis.CategoryReversal) != 2.0 {
		t.Errorf("reversal weight = %v, want 2.0", ac.Weight(analysis.CategoryReversal))
	}
	if ac.MinTouches != 4 {
		t.Errorf("converted min_touches = %d, want 4", ac.MinTouches)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := `
[analysis]
min_touches = 1
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected validation error for min_touches = 1")
	}
}

func TestAnalysisConfigFillsDefaults(t *testing.T) {
	cfg := &Config{}
	ac := cfg.AnalysisConfig()

	def := analysis.DefaultConfig()
	if ac.LookbackWindow != def.LookbackWindow {
		t.Errorf("lookback = %d, want default %d", ac.LookbackWindow, def.LookbackWindow)
	}
	if ac.DecisivenessThreshold != def.DecisivenessThreshold {
		t.Errorf("decisiveness = %v, want default %v", ac.DecisivenessThreshold, def.DecisivenessThreshold)
	}
}
