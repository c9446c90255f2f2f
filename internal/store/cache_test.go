package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ccpulse/ccpulse/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleSession(path string) model.Session {
	start := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	return model.Session{
		ID:        "sess-1",
		Project:   "proj-a",
		FilePath:  path,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Events: []model.UsageEvent{
			{
				ID: "evt-1", SessionID: "sess-1", Timestamp: start,
				Model: "claude-sonnet-4-5", InputTokens: 100, OutputTokens: 50,
				CacheWriteTokens: 10, CacheReadTokens: 20,
				Cost: 0.05, MessageID: "msg_1", RequestID: "req_1",
			},
			{
				ID: "evt-2", SessionID: "sess-1", Timestamp: start.Add(time.Hour),
				Model: "claude-opus-4-5", InputTokens: 200,
				Cost: 0.10, MessageID: "msg_2", RequestID: "req_2",
			},
		},
	}
}

func TestCache_SaveAndLoadRoundtrip(t *testing.T) {
	c := openTestCache(t)
	s := sampleSession("/logs/proj-a/s1.jsonl")

	if err := c.SaveSession(s, 12345, 678); err != nil {
		t.Fatalf("SaveSession error = %v", err)
	}

	sessions, err := c.LoadSessions([]string{s.FilePath})
	if err != nil {
		t.Fatalf("LoadSessions error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	got := sessions[0]
	if got.ID != s.ID || got.Project != s.Project {
		t.Errorf("session = %s/%s, want %s/%s", got.ID, got.Project, s.ID, s.Project)
	}
	if len(got.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(got.Events))
	}
	// Decode order is preserved.
	if got.Events[0].ID != "evt-1" || got.Events[1].ID != "evt-2" {
		t.Errorf("event order = %s, %s", got.Events[0].ID, got.Events[1].ID)
	}
	e := got.Events[0]
	if e.InputTokens != 100 || e.CacheReadTokens != 20 || e.Cost != 0.05 {
		t.Errorf("event fields lost: %+v", e)
	}
	if !e.Timestamp.Equal(s.Events[0].Timestamp) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, s.Events[0].Timestamp)
	}
	if e.MessageID != "msg_1" || e.RequestID != "req_1" {
		t.Errorf("ids = %s/%s, want msg_1/req_1", e.MessageID, e.RequestID)
	}
}

func TestCache_SaveReplacesEvents(t *testing.T) {
	c := openTestCache(t)
	s := sampleSession("/logs/proj-a/s1.jsonl")

	if err := c.SaveSession(s, 1, 1); err != nil {
		t.Fatal(err)
	}

	s.Events = s.Events[:1]
	if err := c.SaveSession(s, 2, 2); err != nil {
		t.Fatal(err)
	}

	sessions, err := c.LoadSessions([]string{s.FilePath})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions[0].Events) != 1 {
		t.Fatalf("got %d events after resave, want 1", len(sessions[0].Events))
	}

	tracked, err := c.TrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if fi := tracked[s.FilePath]; fi.MtimeNs != 2 || fi.SizeBytes != 2 {
		t.Errorf("tracked info = %+v, want mtime 2 size 2", fi)
	}
}

func TestCache_TrackedFiles(t *testing.T) {
	c := openTestCache(t)

	if err := c.SaveSession(sampleSession("/a/s1.jsonl"), 10, 100); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSession(sampleSession("/a/s2.jsonl"), 20, 200); err != nil {
		t.Fatal(err)
	}

	tracked, err := c.TrackedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(tracked) != 2 {
		t.Fatalf("tracked %d files, want 2", len(tracked))
	}
	if tracked["/a/s1.jsonl"].MtimeNs != 10 || tracked["/a/s2.jsonl"].SizeBytes != 200 {
		t.Errorf("tracked = %+v", tracked)
	}
}

func TestCache_LoadSessionsFiltersByPath(t *testing.T) {
	c := openTestCache(t)
	if err := c.SaveSession(sampleSession("/a/s1.jsonl"), 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSession(sampleSession("/a/s2.jsonl"), 1, 1); err != nil {
		t.Fatal(err)
	}

	sessions, err := c.LoadSessions([]string{"/a/s2.jsonl"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].FilePath != "/a/s2.jsonl" {
		t.Fatalf("got %+v, want only s2", sessions)
	}

	none, err := c.LoadSessions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Errorf("empty path list should load nothing, got %d", len(none))
	}
}

func TestCache_DeleteFile(t *testing.T) {
	c := openTestCache(t)
	s := sampleSession("/a/s1.jsonl")
	if err := c.SaveSession(s, 1, 1); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteFile(s.FilePath); err != nil {
		t.Fatalf("DeleteFile error = %v", err)
	}

	count, err := c.FileCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("FileCount = %d after delete, want 0", count)
	}

	// Events cascade with the file row.
	sessions, err := c.LoadSessions([]string{s.FilePath})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Errorf("events survived file deletion: %+v", sessions)
	}
}

func TestCache_ReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.db")

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSession(sampleSession("/a/s1.jsonl"), 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c2.Close() }()

	count, err := c2.FileCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("FileCount after reopen = %d, want 1", count)
	}
}
