package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/ccpulse/ccpulse/internal/model"
)

func ev(id string, ts time.Time, input, output int64, cost float64) model.UsageEvent {
	return model.UsageEvent{
		ID:           id,
		Timestamp:    ts,
		Model:        "claude-sonnet-4-5",
		InputTokens:  input,
		OutputTokens: output,
		Cost:         cost,
		MessageID:    "msg-" + id,
	}
}

func TestRollingWindow_BoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.Local)

	events := []model.UsageEvent{
		ev("exact", now.Add(-5*time.Hour), 100, 0, 0.1),           // exactly at cutoff: in
		ev("older", now.Add(-5*time.Hour-time.Second), 999, 0, 1), // just outside: out
		ev("recent", now.Add(-time.Hour), 50, 0, 0.05),
	}

	w := RollingWindow(events, now, 5, 0)
	if w.InputTokens != 150 {
		t.Fatalf("window InputTokens = %d, want 150", w.InputTokens)
	}
	if !w.Start.Equal(now.Add(-5 * time.Hour)) {
		t.Errorf("window Start = %v, want the boundary event", w.Start)
	}
	if w.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", w.MessageCount)
	}
}

func TestRollingWindow_Empty(t *testing.T) {
	now := time.Now()
	w := RollingWindow(nil, now, 5, 1000)
	if w.TotalTokens() != 0 || !w.Start.IsZero() {
		t.Fatalf("empty window = %+v, want zero value", w)
	}
}

func TestRollingWindow_BurnRateGate(t *testing.T) {
	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.Local)

	// Window only 30 seconds old: no burn rate, projection equals cost.
	young := []model.UsageEvent{ev("a", now.Add(-30*time.Second), 6000, 0, 1.0)}
	w := RollingWindow(young, now, 5, 0)
	if w.BurnRatePerMin != 0 {
		t.Errorf("young window BurnRatePerMin = %v, want 0", w.BurnRatePerMin)
	}
	if w.ProjectedCost != w.Cost {
		t.Errorf("young window ProjectedCost = %v, want Cost %v", w.ProjectedCost, w.Cost)
	}

	// Window 2 minutes old: 6000 tokens / 2 min = 3000 tok/min, and the
	// projection extrapolates cost to the full 5h window.
	older := []model.UsageEvent{ev("a", now.Add(-2*time.Minute), 6000, 0, 1.0)}
	w = RollingWindow(older, now, 5, 0)
	if math.Abs(w.BurnRatePerMin-3000) > 1e-9 {
		t.Errorf("BurnRatePerMin = %v, want 3000", w.BurnRatePerMin)
	}
	wantProjected := 1.0 / 120 * (5 * 3600)
	if math.Abs(w.ProjectedCost-wantProjected) > 1e-9 {
		t.Errorf("ProjectedCost = %v, want %v", w.ProjectedCost, wantProjected)
	}
}

func TestRollingWindow_DistinctMessageCount(t *testing.T) {
	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("a", now.Add(-time.Hour), 1, 0, 0),
		ev("a", now.Add(-time.Hour), 1, 0, 0), // same id counted once
		ev("b", now.Add(-time.Hour), 1, 0, 0),
	}
	w := RollingWindow(events, now, 5, 0)
	if w.MessageCount != 2 {
		t.Fatalf("MessageCount = %d, want 2 distinct ids", w.MessageCount)
	}
}

func TestRollingWindow_PercentUsed(t *testing.T) {
	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.Local)
	events := []model.UsageEvent{ev("a", now.Add(-time.Hour), 25_000, 0, 0)}
	w := RollingWindow(events, now, 5, 100_000)
	if math.Abs(w.PercentUsed-25) > 1e-9 {
		t.Fatalf("PercentUsed = %v, want 25", w.PercentUsed)
	}
}

func TestTodayStats_LocalMidnightBoundary(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("today", time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local), 10, 0, 0.1),
		ev("yesterday", time.Date(2026, 8, 14, 23, 59, 59, 0, time.Local), 99, 0, 0.9),
	}

	day := TodayStats(events, now)
	if day.InputTokens != 10 {
		t.Fatalf("today InputTokens = %d, want 10", day.InputTokens)
	}
	if day.EventCount != 1 {
		t.Fatalf("today EventCount = %d, want 1", day.EventCount)
	}
}

func TestCalendarTotals_WeekStartsMonday(t *testing.T) {
	// Wednesday 2026-08-12. The week started Monday 2026-08-10 00:00.
	now := time.Date(2026, 8, 12, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("mon", time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local), 1, 0, 1.0),     // Monday 00:00: this week
		ev("sun", time.Date(2026, 8, 9, 23, 59, 0, 0, time.Local), 1, 0, 2.0),    // Sunday night: last week
		ev("july", time.Date(2026, 7, 20, 12, 0, 0, 0, time.Local), 1, 0, 4.0),   // last month
		ev("aug1", time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local), 1, 0, 8.0),     // this month
	}

	week, month, allTime := calendarTotals(events, now)
	if math.Abs(week-1.0) > 1e-9 {
		t.Errorf("week = %v, want 1.0 (Monday event only)", week)
	}
	if math.Abs(month-11.0) > 1e-9 {
		t.Errorf("month = %v, want 11.0", month)
	}
	if math.Abs(allTime-15.0) > 1e-9 {
		t.Errorf("allTime = %v, want 15.0", allTime)
	}
}

func TestCalendarTotals_SundayNow(t *testing.T) {
	// Sunday 2026-08-16 belongs to the week that began Monday 08-10.
	now := time.Date(2026, 8, 16, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("mon", time.Date(2026, 8, 10, 6, 0, 0, 0, time.Local), 1, 0, 3.0),
	}
	week, _, _ := calendarTotals(events, now)
	if math.Abs(week-3.0) > 1e-9 {
		t.Fatalf("week = %v, want 3.0 (Monday still in current week on Sunday)", week)
	}
}

func TestDailyBreakdown(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("a", time.Date(2026, 8, 15, 9, 0, 0, 0, time.Local), 10, 0, 0.1),
		ev("b", time.Date(2026, 8, 15, 10, 0, 0, 0, time.Local), 10, 0, 0.1),
		ev("c", time.Date(2026, 8, 13, 9, 0, 0, 0, time.Local), 5, 0, 0.05),
		ev("old", time.Date(2026, 8, 1, 9, 0, 0, 0, time.Local), 99, 0, 1.0), // outside 7 days
	}

	days := DailyBreakdown(events, now, 7)
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2 (empty days omitted, old day cut)", len(days))
	}
	// Most recent first.
	if days[0].Date.Day() != 15 || days[1].Date.Day() != 13 {
		t.Errorf("day order = %v, %v; want Aug 15 then Aug 13", days[0].Date, days[1].Date)
	}
	if days[0].EventCount != 2 || days[0].InputTokens != 20 {
		t.Errorf("Aug 15 = %d events / %d tokens, want 2 / 20", days[0].EventCount, days[0].InputTokens)
	}
}

func TestHistory_DailyNoZeroFill(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("a", time.Date(2026, 8, 15, 9, 0, 0, 0, time.Local), 10, 5, 0.1),
		ev("b", time.Date(2026, 8, 11, 9, 0, 0, 0, time.Local), 20, 0, 0.2),
		ev("old", time.Date(2026, 8, 1, 9, 0, 0, 0, time.Local), 99, 0, 1.0), // before range
	}

	points := History(events, now, PeriodDay, 7)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (no zero-fill)", len(points))
	}
	// Ascending by period start.
	if !points[0].PeriodStart.Before(points[1].PeriodStart) {
		t.Error("history not sorted ascending")
	}
	if points[1].Tokens != 15 {
		t.Errorf("latest point Tokens = %d, want 15 (input+output)", points[1].Tokens)
	}
}

func TestHistory_WeeklyBuckets(t *testing.T) {
	// Wednesday 2026-08-12; current week starts Monday 08-10.
	now := time.Date(2026, 8, 12, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("thisweek", time.Date(2026, 8, 11, 9, 0, 0, 0, time.Local), 10, 0, 0.1),
		ev("lastweek", time.Date(2026, 8, 5, 9, 0, 0, 0, time.Local), 20, 0, 0.2),
	}

	points := History(events, now, PeriodWeek, 8)
	if len(points) != 2 {
		t.Fatalf("got %d weekly points, want 2", len(points))
	}
	wantFirst := time.Date(2026, 8, 3, 0, 0, 0, 0, time.Local)
	wantSecond := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	if !points[0].PeriodStart.Equal(wantFirst) || !points[1].PeriodStart.Equal(wantSecond) {
		t.Errorf("period starts = %v, %v; want %v, %v",
			points[0].PeriodStart, points[1].PeriodStart, wantFirst, wantSecond)
	}
}

func TestHistory_MonthlyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	events := []model.UsageEvent{
		ev("aug", time.Date(2026, 8, 2, 9, 0, 0, 0, time.Local), 10, 0, 0.1),
		ev("jun", time.Date(2026, 6, 20, 9, 0, 0, 0, time.Local), 20, 0, 0.2),
		ev("jan", time.Date(2026, 1, 10, 9, 0, 0, 0, time.Local), 99, 0, 1.0), // before 6-month range
	}

	points := History(events, now, PeriodMonth, 6)
	if len(points) != 2 {
		t.Fatalf("got %d monthly points, want 2", len(points))
	}
	if points[0].PeriodStart.Month() != time.June || points[1].PeriodStart.Month() != time.August {
		t.Errorf("months = %v, %v; want June, August",
			points[0].PeriodStart.Month(), points[1].PeriodStart.Month())
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	now := time.Now()
	stats := Compute(nil, now, DefaultOptions())

	if !stats.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", stats.GeneratedAt, now)
	}
	if stats.Window.TotalTokens() != 0 || stats.AllTimeCost != 0 {
		t.Error("empty input should yield zero stats")
	}
	if len(stats.Daily) != 0 || len(stats.DailyHistory) != 0 {
		t.Error("empty input should yield empty series")
	}
}

func TestCompute_EndToEnd(t *testing.T) {
	now := time.Date(2026, 8, 15, 15, 0, 0, 0, time.Local)
	sessions := []model.Session{
		{
			ID: "s1",
			Events: []model.UsageEvent{
				ev("a", now.Add(-time.Hour), 1000, 500, 0.5),
				ev("b", now.Add(-30*24*time.Hour), 2000, 0, 1.5),
			},
		},
	}

	stats := Compute(sessions, now, DefaultOptions())
	if stats.Window.TotalTokens() != 1500 {
		t.Errorf("window tokens = %d, want 1500", stats.Window.TotalTokens())
	}
	if math.Abs(stats.AllTimeCost-2.0) > 1e-9 {
		t.Errorf("AllTimeCost = %v, want 2.0", stats.AllTimeCost)
	}
	if stats.Today.InputTokens != 1000 {
		t.Errorf("today input = %d, want 1000", stats.Today.InputTokens)
	}
}

func TestStartOfWeek_AllWeekdays(t *testing.T) {
	monday := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i).Add(13 * time.Hour)
		got := startOfWeek(day)
		if !got.Equal(monday) {
			t.Errorf("startOfWeek(%v) = %v, want %v", day, got, monday)
		}
	}
}
