// Package store provides a SQLite-backed cache of parsed usage events,
// keyed by source file mtime and size. Everything here is recoverable
// by re-reading the source logs; the cache is purely an accelerator.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ccpulse/ccpulse/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed event caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a source file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// TrackedFiles returns file_path -> FileInfo for all cached files.
func (c *Cache) TrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveSession replaces the cached events for a session's source file.
func (c *Cache) SaveSession(s model.Session, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT OR REPLACE INTO files
		(file_path, session_id, project, start_time, end_time, mtime_ns, size_bytes, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.FilePath, s.ID, s.Project,
		formatTime(s.StartTime), formatTime(s.EndTime),
		mtimeNs, sizeBytes, now,
	)
	if err != nil {
		return err
	}

	if _, err = tx.Exec("DELETE FROM events WHERE file_path = ?", s.FilePath); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO events
		(file_path, seq, event_id, session_id, ts, model,
		 input_tokens, output_tokens, cache_write_tokens, cache_read_tokens,
		 cost, message_id, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range s.Events {
		_, err = stmt.Exec(
			s.FilePath, i, e.ID, e.SessionID,
			e.Timestamp.UTC().Format(time.RFC3339Nano), e.Model,
			e.InputTokens, e.OutputTokens, e.CacheWriteTokens, e.CacheReadTokens,
			e.Cost, e.MessageID, e.RequestID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadSessions reads the cached sessions for the given file paths,
// preserving per-file event decode order.
func (c *Cache) LoadSessions(paths []string) ([]model.Session, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		wanted[p] = struct{}{}
	}

	rows, err := c.db.Query("SELECT file_path, session_id, project, start_time, end_time FROM files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	index := make(map[string]int)
	for rows.Next() {
		var s model.Session
		var start, end sql.NullString
		if err := rows.Scan(&s.FilePath, &s.ID, &s.Project, &start, &end); err != nil {
			return nil, err
		}
		if _, ok := wanted[s.FilePath]; !ok {
			continue
		}
		s.StartTime = parseTime(start)
		s.EndTime = parseTime(end)
		index[s.FilePath] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	evRows, err := c.db.Query(`SELECT
		file_path, event_id, session_id, ts, model,
		input_tokens, output_tokens, cache_write_tokens, cache_read_tokens,
		cost, message_id, request_id
		FROM events ORDER BY file_path, seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = evRows.Close() }()

	for evRows.Next() {
		var path, ts string
		var e model.UsageEvent
		err := evRows.Scan(&path, &e.ID, &e.SessionID, &ts, &e.Model,
			&e.InputTokens, &e.OutputTokens, &e.CacheWriteTokens, &e.CacheReadTokens,
			&e.Cost, &e.MessageID, &e.RequestID)
		if err != nil {
			return nil, err
		}
		idx, ok := index[path]
		if !ok {
			continue
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		sessions[idx].Events = append(sessions[idx].Events, e)
	}

	return sessions, evRows.Err()
}

// DeleteFile removes a file's tracking entry and its events.
func (c *Cache) DeleteFile(filePath string) error {
	_, err := c.db.Exec("DELETE FROM files WHERE file_path = ?", filePath)
	return err
}

// FileCount returns the number of tracked files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.String)
	return t
}
