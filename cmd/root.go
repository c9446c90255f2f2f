package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/model"
	"github.com/ccpulse/ccpulse/internal/pipeline"
	"github.com/ccpulse/ccpulse/internal/store"
)

var (
	flagDataDir string
	flagNoCache bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "ccpulse",
	Short: "Claude Code usage aggregation",
	Long:  "Track Claude Code token usage and costs: rolling window, daily breakdowns, and history.",
	RunE:  runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude projects directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig resolves the effective configuration, with the data-dir
// flag taking precedence over the config file.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Config unreadable, using defaults: %v\n", err)
		}
		cfg = config.DefaultConfig()
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	return cfg
}

// loadData is the shared loading path used by the one-shot commands.
// Uses the SQLite cache when enabled for fast subsequent runs.
func loadData(cfg config.Config) (*pipeline.LoadResult, error) {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	if cfg.Cache.Enabled && !flagNoCache {
		cache, err := store.Open(cfg.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadAllWithCache(cfg.General.DataDir, cache, progressFn)
			if err != nil {
				if !flagQuiet {
					fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full parse\n")
				}
			} else {
				if !flagQuiet && cr.TotalFiles > 0 {
					fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed    \n", cr.CacheHits, cr.Reparsed)
				}
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.LoadAll(cfg.General.DataDir, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %d session files    \n", result.ParsedFiles)
	}
	return result, nil
}

func flattenSessions(result *pipeline.LoadResult) []model.UsageEvent {
	return model.Flatten(result.Sessions)
}

// aggregationOptions maps config knobs onto pipeline options.
func aggregationOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		WindowHours:    cfg.Engine.WindowHours,
		DailyDays:      cfg.Engine.DailyDays,
		DailyPeriods:   cfg.Engine.DailyHistoryPeriods,
		WeeklyPeriods:  cfg.Engine.WeeklyHistoryPeriods,
		MonthlyPeriods: cfg.Engine.MonthlyHistoryPeriods,
		TokenLimit:     cfg.Engine.TokenLimit,
	}
}
