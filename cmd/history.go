package cmd

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ccpulse/ccpulse/internal/cli"
	"github.com/ccpulse/ccpulse/internal/model"
	"github.com/ccpulse/ccpulse/internal/pipeline"
)

var flagPeriod string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Historical usage series",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&flagPeriod, "period", "P", "day", "Bucket width: day, week, or month")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	var period pipeline.Period
	var count int
	var dateFormat, title string
	switch flagPeriod {
	case "day":
		period, count = pipeline.PeriodDay, cfg.Engine.DailyHistoryPeriods
		dateFormat, title = "2006-01-02", "DAILY HISTORY"
	case "week":
		period, count = pipeline.PeriodWeek, cfg.Engine.WeeklyHistoryPeriods
		dateFormat, title = "2006-01-02", "WEEKLY HISTORY"
	case "month":
		period, count = pipeline.PeriodMonth, cfg.Engine.MonthlyHistoryPeriods
		dateFormat, title = "2006-01", "MONTHLY HISTORY"
	default:
		return fmt.Errorf("unknown period %q, want day, week, or month", flagPeriod)
	}

	result, err := loadData(cfg)
	if err != nil {
		return err
	}

	points := pipeline.History(flattenSessions(result), time.Now(), period, count)
	if len(points) == 0 {
		fmt.Println("\n  No usage in the selected range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.PeriodStart.Format(dateFormat),
			cli.FormatTokens(p.Tokens),
			cli.FormatCost(p.Cost),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Period", "Tokens", "Cost"},
		Rows:    rows,
	}))

	costs := lo.Map(points, func(p model.HistoryPoint, _ int) float64 { return p.Cost })
	fmt.Printf("\n  Cost trend: %s\n", cli.RenderSparkline(costs))
	return nil
}
