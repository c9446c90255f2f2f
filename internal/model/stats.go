package model

import "time"

// WindowStats holds totals for the trailing rolling window.
type WindowStats struct {
	// Start is the timestamp of the earliest event inside the window.
	// Zero means the window is empty.
	Start time.Time

	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	Cost             float64

	Models []string

	// MessageCount is the number of distinct event ids in the window,
	// a message-count proxy rather than a true session count.
	MessageCount int

	// BurnRatePerMin is tokens per minute since Start. Zero until the
	// window is older than a minute.
	BurnRatePerMin float64

	// ProjectedCost extrapolates Cost to the full window duration.
	// Equals Cost until the window is older than a minute.
	ProjectedCost float64

	// PercentUsed is TotalTokens relative to the configured assumed
	// token limit. An estimate, not a vendor quota.
	PercentUsed float64
}

// TotalTokens returns the sum of all four token categories in the window.
func (w WindowStats) TotalTokens() int64 {
	return w.InputTokens + w.OutputTokens + w.CacheWriteTokens + w.CacheReadTokens
}

// DayStat holds totals for one local calendar day.
type DayStat struct {
	Date             time.Time
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	Cost             float64
	EventCount       int
	Models           []string
}

// TotalTokens returns the sum of all four token categories for the day.
func (d DayStat) TotalTokens() int64 {
	return d.InputTokens + d.OutputTokens + d.CacheWriteTokens + d.CacheReadTokens
}

// HistoryPoint is one bucket of a fixed-width historical series.
type HistoryPoint struct {
	PeriodStart time.Time
	Tokens      int64
	Cost        float64
}

// AggregatedStats is a complete, internally consistent snapshot of all
// computed statistics. Snapshots are replaced wholesale on each refresh,
// never patched in place.
type AggregatedStats struct {
	GeneratedAt time.Time

	// DataDirMissing distinguishes "no data directory found" from
	// "zero usage everywhere".
	DataDirMissing bool

	Window WindowStats
	Today  DayStat

	WeekCost    float64
	MonthCost   float64
	AllTimeCost float64

	Daily []DayStat

	DailyHistory   []HistoryPoint
	WeeklyHistory  []HistoryPoint
	MonthlyHistory []HistoryPoint
}
