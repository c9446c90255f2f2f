// Package engine keeps usage statistics fresh. It owns the session
// cache and dirty flag, merges filesystem-change signals and periodic
// timer ticks into a single refresh policy, and publishes complete
// statistics snapshots to subscribers.
package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ccpulse/ccpulse/internal/config"
	"github.com/ccpulse/ccpulse/internal/model"
	"github.com/ccpulse/ccpulse/internal/pipeline"
	"github.com/ccpulse/ccpulse/internal/source"
	"github.com/ccpulse/ccpulse/internal/store"
)

// Engine is the refresh controller. All mutation of the session cache
// and dirty flag goes through its single refresh path; everything else
// reads immutable snapshots.
type Engine struct {
	cfg  config.Config
	opts pipeline.Options

	inFlight atomic.Bool
	dirty    atomic.Bool

	mu          sync.Mutex // guards the fields below
	sessions    []model.Session
	hasLoaded   bool
	rootMissing bool
	lastReload  time.Time
	lastProbe   time.Time

	snapshot atomic.Pointer[model.AggregatedStats]

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]chan *model.AggregatedStats

	intervalCh chan time.Duration

	cache *store.Cache // nil unless the disk cache is enabled

	// now is swappable for tests.
	now func() time.Time
}

// New returns an engine for the given configuration. The session cache
// starts empty, so the first refresh always performs a full reparse.
func New(cfg config.Config) *Engine {
	e := &Engine{
		cfg: cfg,
		opts: pipeline.Options{
			WindowHours:    cfg.Engine.WindowHours,
			DailyDays:      cfg.Engine.DailyDays,
			DailyPeriods:   cfg.Engine.DailyHistoryPeriods,
			WeeklyPeriods:  cfg.Engine.WeeklyHistoryPeriods,
			MonthlyPeriods: cfg.Engine.MonthlyHistoryPeriods,
			TokenLimit:     cfg.Engine.TokenLimit,
		},
		subs:       make(map[int]chan *model.AggregatedStats),
		intervalCh: make(chan time.Duration, 1),
		now:        time.Now,
	}

	if cfg.Cache.Enabled {
		cache, err := store.Open(cfg.CachePath())
		if err != nil {
			log.Printf("engine: disk cache unavailable, full parses only: %v", err)
		} else {
			e.cache = cache
		}
	}

	return e
}

// Snapshot returns the latest published statistics, or nil before the
// first refresh completes.
func (e *Engine) Snapshot() *model.AggregatedStats {
	return e.snapshot.Load()
}

// Subscribe registers for snapshot publications. The returned cancel
// func must be called to release the subscription. Slow consumers miss
// intermediate snapshots rather than blocking the engine.
func (e *Engine) Subscribe() (<-chan *model.AggregatedStats, func()) {
	ch := make(chan *model.AggregatedStats, 1)

	e.subMu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subs[id] = ch
	e.subMu.Unlock()

	cancel := func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
	return ch, cancel
}

// Refresh requests an asynchronous refresh. It never blocks: if a
// refresh is already in flight the trigger is dropped and Refresh
// reports false.
func (e *Engine) Refresh(force bool) bool {
	if !e.inFlight.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer e.inFlight.Store(false)
		e.refresh(force)
	}()
	return true
}

// SetInterval reconfigures the periodic timer. Takes effect on the
// running loop; a stopped engine just remembers the value.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.cfg.Engine.RefreshIntervalSec = int(d / time.Second)
	e.mu.Unlock()

	select {
	case e.intervalCh <- d:
	default:
	}
}

// markDirty is the debounced filesystem-change entry point.
func (e *Engine) markDirty() {
	e.dirty.Store(true)
	e.Refresh(false)
}

// Run starts the directory watcher and periodic timer and blocks until
// ctx is canceled. The first refresh is forced so statistics are
// available immediately.
func (e *Engine) Run(ctx context.Context) error {
	w := newWatcher(e.cfg.General.DataDir, e.cfg.Debounce(), e.markDirty)
	if err := w.Start(); err != nil {
		// Timer-driven refresh still works without change notification.
		log.Printf("engine: directory watch unavailable: %v", err)
	}
	defer w.Stop()

	e.Refresh(true)

	interval := e.cfg.RefreshInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if e.cache != nil {
				_ = e.cache.Close()
			}
			return ctx.Err()
		case <-ticker.C:
			e.Refresh(false)
		case d := <-e.intervalCh:
			ticker.Reset(d)
		}
	}
}

// refresh runs one full refresh cycle: decide whether to reparse,
// reload if needed, recompute every aggregate, publish the snapshot.
// Exactly one instance runs at a time (guarded by inFlight).
func (e *Engine) refresh(force bool) {
	now := e.now()

	e.mu.Lock()
	reload := force || e.dirty.Load() || !e.hasLoaded
	if !reload && now.Sub(e.lastProbe) >= e.cfg.RefreshInterval() {
		e.lastProbe = now
		reload = source.ModifiedSince(e.cfg.General.DataDir, e.lastReload)
	}
	root := e.cfg.General.DataDir
	e.mu.Unlock()

	if reload {
		sessions, rootMissing, err := e.load(root)
		if err != nil {
			// Keep the cache and the dirty flag; stale beats broken.
			log.Printf("engine: reload failed: %v", err)
		} else {
			e.mu.Lock()
			e.sessions = sessions
			e.hasLoaded = true
			e.rootMissing = rootMissing
			e.lastReload = now
			e.mu.Unlock()
			e.dirty.Store(false)
		}
	}

	e.mu.Lock()
	sessions := e.sessions
	rootMissing := e.rootMissing
	e.mu.Unlock()

	stats := pipeline.Compute(sessions, e.now(), e.opts)
	stats.DataDirMissing = rootMissing

	e.snapshot.Store(&stats)
	e.publish(&stats)
}

func (e *Engine) load(root string) ([]model.Session, bool, error) {
	if e.cache != nil {
		result, err := pipeline.LoadAllWithCache(root, e.cache, nil)
		if err == nil {
			return result.Sessions, result.RootMissing, nil
		}
		log.Printf("engine: cached load failed, falling back to full parse: %v", err)
	}

	result, err := pipeline.LoadAll(root, nil)
	if err != nil {
		return nil, false, err
	}
	return result.Sessions, result.RootMissing, nil
}

func (e *Engine) publish(stats *model.AggregatedStats) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		// Last writer wins: displace a stale queued snapshot rather
		// than blocking on a slow consumer.
		select {
		case ch <- stats:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- stats:
			default:
			}
		}
	}
}
