// Package model defines domain types for ccpulse usage events and statistics.
package model

import "time"

// UsageEvent is one billable assistant response decoded from a log line.
// Events are immutable once decoded; Cost is annotated by the loader from
// the pricing table and never recomputed afterwards.
type UsageEvent struct {
	ID        string
	SessionID string
	Timestamp time.Time
	Model     string

	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64

	Cost float64

	// Dedup key components. RequestID may be empty, in which case the
	// event is never deduplicated.
	MessageID string
	RequestID string
}

// TotalTokens returns the sum of all four token categories.
func (e UsageEvent) TotalTokens() int64 {
	return e.InputTokens + e.OutputTokens + e.CacheWriteTokens + e.CacheReadTokens
}

// Session is the deduplicated event sequence decoded from one log file.
// It is rebuilt from scratch whenever the file is re-parsed; events keep
// decode order, which is not necessarily timestamp order.
type Session struct {
	ID        string
	Project   string
	FilePath  string
	StartTime time.Time
	EndTime   time.Time
	Events    []UsageEvent
}

// Flatten concatenates the events of all sessions into one slice.
func Flatten(sessions []Session) []UsageEvent {
	n := 0
	for _, s := range sessions {
		n += len(s.Events)
	}
	events := make([]UsageEvent, 0, n)
	for _, s := range sessions {
		events = append(events, s.Events...)
	}
	return events
}
