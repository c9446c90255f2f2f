package pipeline

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/ccpulse/ccpulse/internal/model"
)

// Options controls window sizes and bucket counts for aggregation.
type Options struct {
	WindowHours int
	DailyDays   int

	DailyPeriods   int
	WeeklyPeriods  int
	MonthlyPeriods int

	// TokenLimit is the assumed rolling-window ceiling driving the
	// percentage-used estimate.
	TokenLimit int64
}

// DefaultOptions returns the standard aggregation parameters.
func DefaultOptions() Options {
	return Options{
		WindowHours:    5,
		DailyDays:      7,
		DailyPeriods:   7,
		WeeklyPeriods:  8,
		MonthlyPeriods: 6,
		TokenLimit:     100_000_000,
	}
}

// Compute derives a complete statistics snapshot from a session
// collection at the reference instant now. Pure function of its inputs.
func Compute(sessions []model.Session, now time.Time, opts Options) model.AggregatedStats {
	events := model.Flatten(sessions)

	stats := model.AggregatedStats{
		GeneratedAt: now,
		Window:      RollingWindow(events, now, opts.WindowHours, opts.TokenLimit),
		Today:       TodayStats(events, now),
		Daily:       DailyBreakdown(events, now, opts.DailyDays),
	}

	stats.WeekCost, stats.MonthCost, stats.AllTimeCost = calendarTotals(events, now)

	stats.DailyHistory = History(events, now, PeriodDay, opts.DailyPeriods)
	stats.WeeklyHistory = History(events, now, PeriodWeek, opts.WeeklyPeriods)
	stats.MonthlyHistory = History(events, now, PeriodMonth, opts.MonthlyPeriods)

	return stats
}

// RollingWindow aggregates events in the trailing windowHours window.
// An event exactly at now-windowHours is included.
func RollingWindow(events []model.UsageEvent, now time.Time, windowHours int, tokenLimit int64) model.WindowStats {
	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)

	var inWindow []model.UsageEvent
	for _, e := range events {
		if !e.Timestamp.Before(cutoff) {
			inWindow = append(inWindow, e)
		}
	}
	if len(inWindow) == 0 {
		return model.WindowStats{}
	}

	sort.Slice(inWindow, func(i, j int) bool {
		return inWindow[i].Timestamp.Before(inWindow[j].Timestamp)
	})

	w := model.WindowStats{Start: inWindow[0].Timestamp}
	ids := make(map[string]struct{}, len(inWindow))
	var models []string

	for _, e := range inWindow {
		w.InputTokens += e.InputTokens
		w.OutputTokens += e.OutputTokens
		w.CacheWriteTokens += e.CacheWriteTokens
		w.CacheReadTokens += e.CacheReadTokens
		w.Cost += e.Cost
		ids[e.ID] = struct{}{}
		if e.Model != "" {
			models = append(models, e.Model)
		}
	}

	w.MessageCount = len(ids)
	w.Models = lo.Uniq(models)
	sort.Strings(w.Models)

	// Burn rate and projection only stabilize once the window is older
	// than a minute; a younger window reports its raw cost unprojected.
	elapsed := now.Sub(w.Start)
	if elapsed > time.Minute {
		w.BurnRatePerMin = float64(w.TotalTokens()) / elapsed.Minutes()
		windowSecs := float64(windowHours) * 3600
		w.ProjectedCost = w.Cost / elapsed.Seconds() * windowSecs
	} else {
		w.ProjectedCost = w.Cost
	}

	if tokenLimit > 0 {
		w.PercentUsed = float64(w.TotalTokens()) / float64(tokenLimit) * 100
	}

	return w
}

// TodayStats aggregates events since local midnight.
func TodayStats(events []model.UsageEvent, now time.Time) model.DayStat {
	midnight := startOfDay(now)
	day := model.DayStat{Date: midnight}
	var models []string

	for _, e := range events {
		if e.Timestamp.Local().Before(midnight) {
			continue
		}
		day.InputTokens += e.InputTokens
		day.OutputTokens += e.OutputTokens
		day.CacheWriteTokens += e.CacheWriteTokens
		day.CacheReadTokens += e.CacheReadTokens
		day.Cost += e.Cost
		day.EventCount++
		if e.Model != "" {
			models = append(models, e.Model)
		}
	}

	day.Models = lo.Uniq(models)
	sort.Strings(day.Models)
	return day
}

// calendarTotals computes week, month, and all-time cost sums in a
// single pass. Week and month membership are rechecked per event; one
// event may count toward all three.
func calendarTotals(events []model.UsageEvent, now time.Time) (week, month, allTime float64) {
	weekStart := startOfWeek(now)
	monthStart := startOfMonth(now)

	for _, e := range events {
		local := e.Timestamp.Local()
		allTime += e.Cost
		if !local.Before(weekStart) {
			week += e.Cost
		}
		if !local.Before(monthStart) {
			month += e.Cost
		}
	}
	return week, month, allTime
}

// DailyBreakdown buckets events by local calendar day over the last
// days days, most recent first. Days without events are omitted.
func DailyBreakdown(events []model.UsageEvent, now time.Time, days int) []model.DayStat {
	cutoff := startOfDay(now).AddDate(0, 0, -(days - 1))

	buckets := make(map[time.Time]*model.DayStat)
	modelsByDay := make(map[time.Time][]string)

	for _, e := range events {
		day := startOfDay(e.Timestamp)
		if day.Before(cutoff) {
			continue
		}
		ds, ok := buckets[day]
		if !ok {
			ds = &model.DayStat{Date: day}
			buckets[day] = ds
		}
		ds.InputTokens += e.InputTokens
		ds.OutputTokens += e.OutputTokens
		ds.CacheWriteTokens += e.CacheWriteTokens
		ds.CacheReadTokens += e.CacheReadTokens
		ds.Cost += e.Cost
		ds.EventCount++
		if e.Model != "" {
			modelsByDay[day] = append(modelsByDay[day], e.Model)
		}
	}

	result := make([]model.DayStat, 0, len(buckets))
	for day, ds := range buckets {
		ds.Models = lo.Uniq(modelsByDay[day])
		sort.Strings(ds.Models)
		result = append(result, *ds)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result
}

// Period selects the bucket width of a historical series.
type Period int

const (
	PeriodDay Period = iota
	PeriodWeek
	PeriodMonth
)

// History buckets events into the last count day/week/month periods.
// Only periods with at least one event appear; missing periods are not
// zero-filled. Sorted ascending by period start.
func History(events []model.UsageEvent, now time.Time, period Period, count int) []model.HistoryPoint {
	var rangeStart time.Time
	switch period {
	case PeriodWeek:
		rangeStart = startOfWeek(now).AddDate(0, 0, -7*(count-1))
	case PeriodMonth:
		rangeStart = startOfMonth(now).AddDate(0, -(count - 1), 0)
	default:
		rangeStart = startOfDay(now).AddDate(0, 0, -(count - 1))
	}

	buckets := make(map[time.Time]*model.HistoryPoint)
	for _, e := range events {
		var key time.Time
		switch period {
		case PeriodWeek:
			key = startOfWeek(e.Timestamp)
		case PeriodMonth:
			key = startOfMonth(e.Timestamp)
		default:
			key = startOfDay(e.Timestamp)
		}
		if key.Before(rangeStart) {
			continue
		}
		hp, ok := buckets[key]
		if !ok {
			hp = &model.HistoryPoint{PeriodStart: key}
			buckets[key] = hp
		}
		hp.Tokens += e.TotalTokens()
		hp.Cost += e.Cost
	}

	keys := lo.Keys(buckets)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]model.HistoryPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *buckets[k])
	}
	return points
}

// startOfDay returns local midnight of t's local calendar day.
func startOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// startOfWeek returns Monday 00:00 local time of t's ISO week.
func startOfWeek(t time.Time) time.Time {
	midnight := startOfDay(t)
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday = 0
	return midnight.AddDate(0, 0, -offset)
}

// startOfMonth returns the 1st 00:00 local time of t's month.
func startOfMonth(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.Local)
}
