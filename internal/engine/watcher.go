package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcher observes the data directory and its project subdirectories
// and collapses bursts of filesystem events into a single debounced
// onChange call.
type watcher struct {
	root     string
	debounce time.Duration
	onChange func()

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	gen   int
	timer *time.Timer
}

func newWatcher(root string, debounce time.Duration, onChange func()) *watcher {
	return &watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start establishes watches on the root and every existing project
// directory, then begins dispatching. Failure to watch an individual
// project directory is tolerated; failure on the root is not.
func (w *watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			_ = fsw.Add(filepath.Join(w.root, entry.Name()))
		}
	}

	w.fsw = fsw
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop tears down the watches and cancels any pending debounce. Safe
// to call after a failed Start.
func (w *watcher) Stop() {
	w.mu.Lock()
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.fsw == nil {
		return
	}
	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are transient; the periodic timer covers
			// anything missed.
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	// New project directories appear after startup; watch them as they
	// are created so their session files are seen too.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(ev.Name)
			w.bump()
			return
		}
	}

	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}
	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		w.bump()
	}
}

// bump schedules the debounced onChange. Each call invalidates any
// pending one; only the timer whose generation is still current fires.
func (w *watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	gen := w.gen
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		current := w.gen == gen
		w.mu.Unlock()
		if current {
			w.onChange()
		}
	})
}
