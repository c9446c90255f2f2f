package model

import "testing"

func TestUsageEvent_TotalTokens(t *testing.T) {
	e := UsageEvent{
		InputTokens:      1,
		OutputTokens:     2,
		CacheWriteTokens: 4,
		CacheReadTokens:  8,
	}
	if got := e.TotalTokens(); got != 15 {
		t.Fatalf("TotalTokens = %d, want 15", got)
	}
}

func TestFlatten(t *testing.T) {
	sessions := []Session{
		{ID: "a", Events: []UsageEvent{{ID: "1"}, {ID: "2"}}},
		{ID: "b"},
		{ID: "c", Events: []UsageEvent{{ID: "3"}}},
	}

	events := Flatten(sessions)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].ID != "1" || events[2].ID != "3" {
		t.Errorf("order not preserved: %v", events)
	}

	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Flatten(nil) = %v, want empty", got)
	}
}
