package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/cli"
	"github.com/ccpulse/ccpulse/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Per-day usage table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	result, err := loadData(cfg)
	if err != nil {
		return err
	}

	days := pipeline.DailyBreakdown(flattenSessions(result), time.Now(), cfg.Engine.DailyDays)
	if len(days) == 0 {
		fmt.Println("\n  No usage in the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY USAGE  Last %dd", cfg.Engine.DailyDays)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			d.Date.Format("Mon"),
			cli.FormatNumber(int64(d.EventCount)),
			cli.FormatTokens(d.TotalTokens()),
			cli.FormatCost(d.Cost),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Messages", "Tokens", "Cost"},
		Rows:    rows,
	}))
	return nil
}
