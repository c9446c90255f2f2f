// Package cmd implements the ccpulse CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.General.DataDir)
	fmt.Println()

	fmt.Println("  [Engine]")
	fmt.Printf("    Refresh interval: %s\n", cfg.RefreshInterval())
	fmt.Printf("    Debounce:         %s\n", cfg.Debounce())
	fmt.Printf("    Window:           %s\n", cfg.Window())
	fmt.Printf("    Daily days:       %d\n", cfg.Engine.DailyDays)
	fmt.Printf("    History periods:  %d day / %d week / %d month\n",
		cfg.Engine.DailyHistoryPeriods,
		cfg.Engine.WeeklyHistoryPeriods,
		cfg.Engine.MonthlyHistoryPeriods,
	)
	fmt.Printf("    Token limit:      %d\n", cfg.Engine.TokenLimit)
	fmt.Println()

	fmt.Println("  [Cache]")
	if cfg.Cache.Enabled {
		fmt.Printf("    Enabled: yes (%s)\n", cfg.CachePath())
	} else {
		fmt.Println("    Enabled: no")
	}

	return nil
}
