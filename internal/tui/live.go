// Package tui provides the live Bubble Tea dashboard for ccpulse.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ccpulse/ccpulse/internal/cli"
	"github.com/ccpulse/ccpulse/internal/engine"
	"github.com/ccpulse/ccpulse/internal/model"
)

// SnapshotMsg carries a freshly published statistics snapshot.
type SnapshotMsg struct {
	Stats *model.AggregatedStats
}

type tickMsg time.Time

var (
	labelStyle = lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	valStyle   = lipgloss.NewStyle().Foreground(cli.ColorText)
	costStyle  = lipgloss.NewStyle().Foreground(cli.ColorGreen)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(cli.ColorAccent)
	faintStyle = lipgloss.NewStyle().Foreground(cli.ColorTextDim)
)

// Live is the root model for the watch dashboard. It renders whatever
// snapshot the engine last published and redraws on a coarse tick so
// relative times stay honest.
type Live struct {
	eng    *engine.Engine
	snaps  <-chan *model.AggregatedStats
	cancel func()

	stats *model.AggregatedStats

	spinner spinner.Model
	width   int
	height  int
}

// NewLive builds the dashboard around a running engine.
func NewLive(eng *engine.Engine) *Live {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	snaps, cancel := eng.Subscribe()
	return &Live{
		eng:     eng,
		snaps:   snaps,
		cancel:  cancel,
		stats:   eng.Snapshot(),
		spinner: sp,
	}
}

func (l *Live) Init() tea.Cmd {
	return tea.Batch(l.spinner.Tick, l.waitForSnapshot(), tick())
}

func (l *Live) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		stats, ok := <-l.snaps
		if !ok {
			return nil
		}
		return SnapshotMsg{Stats: stats}
	}
}

func tick() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (l *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			l.cancel()
			return l, tea.Quit
		case "r":
			l.eng.Refresh(true)
			return l, nil
		}

	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height
		return l, nil

	case SnapshotMsg:
		l.stats = msg.Stats
		return l, l.waitForSnapshot()

	case tickMsg:
		return l, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return l, cmd
	}

	return l, nil
}

func (l *Live) View() string {
	if l.stats == nil {
		return fmt.Sprintf("\n  %s Parsing session logs...\n\n  %s\n",
			l.spinner.View(),
			faintStyle.Render("q to quit"),
		)
	}

	var b strings.Builder
	s := l.stats

	b.WriteString("\n")
	b.WriteString("  " + headStyle.Render("CCPULSE") + "  " +
		faintStyle.Render("updated "+cli.FormatRelative(s.GeneratedAt)) + "\n\n")

	if s.DataDirMissing {
		b.WriteString("  Data directory not found.\n")
		b.WriteString("  " + faintStyle.Render("Use Claude Code first, then come back!") + "\n")
		b.WriteString(l.footer())
		return b.String()
	}

	w := s.Window
	b.WriteString("  " + headStyle.Render("Current Window") + "\n")
	if w.TotalTokens() == 0 {
		b.WriteString("  " + faintStyle.Render("no activity") + "\n")
	} else {
		b.WriteString(row("Tokens", cli.FormatTokens(w.TotalTokens())))
		b.WriteString(row("Cost", costStyle.Render(cli.FormatCost(w.Cost))))
		b.WriteString(row("Projected", cli.FormatCost(w.ProjectedCost)))
		if w.BurnRatePerMin > 0 {
			b.WriteString(row("Burn Rate", cli.FormatTokens(int64(w.BurnRatePerMin))+" tok/min"))
		}
		if len(w.Models) > 0 {
			b.WriteString(row("Models", strings.Join(w.Models, ", ")))
		}
		b.WriteString("  " + cli.RenderUsageBar(w.PercentUsed, 34) + "\n")
	}

	b.WriteString("\n  " + headStyle.Render("Totals") + "\n")
	b.WriteString(row("Today", costStyle.Render(cli.FormatCost(s.Today.Cost))))
	b.WriteString(row("This Week", cli.FormatCost(s.WeekCost)))
	b.WriteString(row("This Month", cli.FormatCost(s.MonthCost)))
	b.WriteString(row("All Time", cli.FormatCost(s.AllTimeCost)))

	if len(s.Daily) > 0 {
		b.WriteString("\n  " + headStyle.Render("Recent Days") + "\n")
		for _, d := range s.Daily {
			b.WriteString(fmt.Sprintf("  %s  %8s  %10s\n",
				labelStyle.Render(d.Date.Format("Jan 02 Mon")),
				valStyle.Render(cli.FormatTokens(d.TotalTokens())),
				cli.FormatCost(d.Cost),
			))
		}
	}

	if len(s.DailyHistory) > 1 {
		costs := make([]float64, len(s.DailyHistory))
		for i, p := range s.DailyHistory {
			costs[i] = p.Cost
		}
		b.WriteString("\n  " + labelStyle.Render("Trend ") + cli.RenderSparkline(costs) + "\n")
	}

	b.WriteString(l.footer())
	return b.String()
}

func (l *Live) footer() string {
	return "\n  " + faintStyle.Render("r refresh · q quit") + "\n"
}

func row(label, value string) string {
	return fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label)), value)
}
