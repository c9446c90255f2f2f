// Package pipeline orchestrates session loading and statistics aggregation.
package pipeline

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ccpulse/ccpulse/internal/model"
	"github.com/ccpulse/ccpulse/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Sessions    []model.Session
	RootMissing bool
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
type ProgressFunc func(current, total int)

// LoadAll discovers and parses every session file under root, one
// session per file, using a bounded worker pool. A missing root is not
// an error: it yields an empty result with RootMissing set.
func LoadAll(root string, progressFn ProgressFunc) (*LoadResult, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return &LoadResult{RootMissing: true}, nil
	}

	files, err := source.ScanRoot(root)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	sessions := parseParallel(files, progressFn, &result.FileErrors)
	result.Sessions = sessions
	result.ParsedFiles = len(files) - result.FileErrors
	return result, nil
}

// parseParallel parses files on a bounded worker pool and returns the
// sessions that contained at least one usage event.
func parseParallel(files []source.SessionFile, progressFn ProgressFunc, fileErrors *int) []model.Session {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	type parsed struct {
		session *model.Session
		err     error
	}

	work := make(chan int, len(files))
	results := make([]parsed, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				s, err := LoadFile(files[idx].Path, files[idx].Project)
				results[idx] = parsed{session: s, err: err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}
	wg.Wait()

	var sessions []model.Session
	for _, p := range results {
		if p.err != nil {
			*fileErrors++
			continue
		}
		if p.session != nil {
			sessions = append(sessions, *p.session)
		}
	}
	return sessions
}

// LoadFile reads one log file and returns its deduplicated session, or
// nil if no usage events survive decoding. The file is always rebuilt
// from scratch; sessions are never patched incrementally.
func LoadFile(path, project string) (*model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sess := &model.Session{
		ID:       strings.TrimSuffix(filepath.Base(path), ".jsonl"),
		Project:  project,
		FilePath: path,
	}

	// Composite keys seen so far. Only records carrying a request id
	// participate; repeated message ids without one are genuinely
	// distinct chargeable events in this format.
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ev, ok := source.DecodeLine(line)
		if !ok {
			continue
		}

		if ev.RequestID != "" {
			key := ev.MessageID + ":" + ev.RequestID
			if _, dup := seen[key]; dup {
				// First occurrence wins; duplicates touch no metadata.
				continue
			}
			seen[key] = struct{}{}
		}

		// Session metadata follows the last writer; events already
		// emitted keep their original association.
		if ev.SessionID != "" {
			sess.ID = ev.SessionID
		}
		if sess.StartTime.IsZero() || ev.Timestamp.Before(sess.StartTime) {
			sess.StartTime = ev.Timestamp
		}
		if sess.EndTime.IsZero() || ev.Timestamp.After(sess.EndTime) {
			sess.EndTime = ev.Timestamp
		}

		sess.Events = append(sess.Events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sess.Events) == 0 {
		return nil, nil
	}
	return sess, nil
}
