package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/cli"
	"github.com/ccpulse/ccpulse/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Current window and calendar totals",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	result, err := loadData(cfg)
	if err != nil {
		return err
	}

	stats := pipeline.Compute(result.Sessions, time.Now(), aggregationOptions(cfg))
	stats.DataDirMissing = result.RootMissing

	fmt.Println()
	fmt.Println(cli.RenderTitle("CLAUDE USAGE"))
	fmt.Println()

	if stats.DataDirMissing {
		fmt.Printf("  Data directory not found: %s\n", cfg.General.DataDir)
		fmt.Println("  Use Claude Code first, then come back!")
		return nil
	}

	w := stats.Window
	rows := [][]string{
		{fmt.Sprintf("Window (%dh)", cfg.Engine.WindowHours), cli.FormatTokens(w.TotalTokens())},
		{"Input", cli.FormatTokens(w.InputTokens)},
		{"Output", cli.FormatTokens(w.OutputTokens)},
		{"Cache Write", cli.FormatTokens(w.CacheWriteTokens)},
		{"Cache Read", cli.FormatTokens(w.CacheReadTokens)},
		{"Messages", cli.FormatNumber(int64(w.MessageCount))},
		{"Cost", cli.FormatCost(w.Cost)},
		{"Projected", cli.FormatCost(w.ProjectedCost)},
	}
	if w.BurnRatePerMin > 0 {
		rows = append(rows, []string{"Burn Rate", fmt.Sprintf("%s tok/min", cli.FormatTokens(int64(w.BurnRatePerMin)))})
	}
	if len(w.Models) > 0 {
		rows = append(rows, []string{"Models", strings.Join(w.Models, ", ")})
	}

	rows = append(rows,
		[]string{"---"},
		[]string{"Today", cli.FormatCost(stats.Today.Cost)},
		[]string{"This Week", cli.FormatCost(stats.WeekCost)},
		[]string{"This Month", cli.FormatCost(stats.MonthCost)},
		[]string{"All Time", cli.FormatCost(stats.AllTimeCost)},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if cfg.Engine.TokenLimit > 0 && w.TotalTokens() > 0 {
		fmt.Printf("\n  %s\n", cli.RenderUsageBar(w.PercentUsed, 40))
	}

	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d files could not be parsed\n", result.FileErrors)
	}
	return nil
}
