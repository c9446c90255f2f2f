package pipeline

import (
	"os"

	"github.com/ccpulse/ccpulse/internal/source"
	"github.com/ccpulse/ccpulse/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
}

// LoadAllWithCache discovers files, diffs mtime/size against the cache,
// parses only changed files, and serves the rest from the cache.
func LoadAllWithCache(root string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return &CachedLoadResult{LoadResult: LoadResult{RootMissing: true}}, nil
	}

	files, err := source.ScanRoot(root)
	if err != nil {
		return nil, err
	}

	result := &CachedLoadResult{LoadResult: LoadResult{TotalFiles: len(files)}}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := cache.TrackedFiles()
	if err != nil {
		return nil, err
	}

	var toReparse []source.SessionFile
	var unchanged []string
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.Path)
		} else {
			toReparse = append(toReparse, f)
		}
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	if len(unchanged) > 0 {
		sessions, err := cache.LoadSessions(unchanged)
		if err != nil {
			return nil, err
		}
		result.Sessions = append(result.Sessions, sessions...)
		result.ParsedFiles += len(sessions)
	}

	if len(toReparse) > 0 {
		parsed := parseParallel(toReparse, progressFn, &result.FileErrors)
		result.Sessions = append(result.Sessions, parsed...)
		result.ParsedFiles += len(parsed)

		for _, s := range parsed {
			info, err := os.Stat(s.FilePath)
			if err != nil {
				continue
			}
			_ = cache.SaveSession(s, info.ModTime().UnixNano(), info.Size())
		}
	}

	return result, nil
}
