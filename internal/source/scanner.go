package source

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionFile is one log file discovered under the data root.
type SessionFile struct {
	Path    string
	Project string // immediate subdirectory name under the root
}

// ScanRoot enumerates the immediate subdirectories of root (one per
// project) and the .jsonl files directly within each. Files outside
// this shape are ignored. A missing root yields an empty result, not
// an error; unreadable project directories are skipped.
func ScanRoot(root string) ([]SessionFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SessionFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		project := entry.Name()
		projectDir := filepath.Join(root, project)

		children, err := os.ReadDir(projectDir)
		if err != nil {
			continue
		}
		for _, child := range children {
			if child.IsDir() || !strings.HasSuffix(child.Name(), ".jsonl") {
				continue
			}
			files = append(files, SessionFile{
				Path:    filepath.Join(projectDir, child.Name()),
				Project: project,
			})
		}
	}

	return files, nil
}

// ModifiedSince reports whether any log file under root has a
// modification time after since. This is the cheap staleness probe:
// stat calls only, no file contents are read.
func ModifiedSince(root string, since time.Time) bool {
	files, err := ScanRoot(root)
	if err != nil {
		return false
	}
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		if info.ModTime().After(since) {
			return true
		}
	}
	return false
}
