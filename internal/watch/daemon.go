package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catsort/internal/config"
	"catsort/internal/log"
	"catsort/internal/metrics"
	"catsort/internal/organize"
	"catsort/internal/schedule"
	"catsort/internal/store"
	"catsort/pkg/types"

	"golang.org/x/sync/errgroup"
)

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running          bool      // Whether the daemon is currently active
	WatchDirectories []string  // Directories being watched
	LastActivity     time.Time // Time of the last run
	Runs             int       // Runs started by the daemon
	Failures         int       // Runs that ended in failure
	FilesProcessed   int       // Total files moved
}

// Daemon hosts the scheduler and, when enabled, the watcher. Every engine
// call goes through one mutex, so scheduled and triggered runs never
// overlap.
type Daemon struct {
	config   *config.Config
	store    *store.FileStore
	engine   *organize.Engine
	recorder *metrics.Recorder
	logger   log.Logging

	scheduler  *schedule.Scheduler
	watcher    *Watcher
	newWatcher func(log.Logging) (*Watcher, error)
	debounce  time.Duration
	resync    time.Duration

	// runMu serializes engine calls
	runMu sync.Mutex

	mutex        sync.RWMutex
	running      bool
	runs         int
	failures     int
	processed    int
	lastActivity time.Time
	roots        map[string]string // resolved root -> config directory key
	pending      map[string]time.Time
	callback     func(types.OrganizeResult)
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithRecorder records runs and, when the config names a textfile,
// exports them after every run.
func WithRecorder(r *metrics.Recorder) DaemonOption {
	return func(d *Daemon) { d.recorder = r }
}

// WithSchedulerOptions passes options through to the scheduler.
func WithSchedulerOptions(opts ...schedule.Option) DaemonOption {
	return func(d *Daemon) {
		d.scheduler = schedule.New(d.store, d.runScheduled, append([]schedule.Option{schedule.WithLogger(d.logger)}, opts...)...)
	}
}

// WithResync sets how often watched directories are synced with the store.
func WithResync(interval time.Duration) DaemonOption {
	return func(d *Daemon) { d.resync = interval }
}

// NewDaemon wires a daemon around an open store and an engine.
func NewDaemon(cfg *config.Config, st *store.FileStore, engine *organize.Engine, logger log.Logging, opts ...DaemonOption) *Daemon {
	if logger == nil {
		logger = log.Default()
	}
	d := &Daemon{
		config:   cfg,
		store:    st,
		engine:   engine,
		logger:   logger.With(log.F("component", "daemon")),
		debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
		resync:   30 * time.Second,
		roots:    make(map[string]string),
		pending:  make(map[string]time.Time),
	}
	d.newWatcher = NewWatcher
	d.scheduler = schedule.New(st, d.runScheduled, schedule.WithLogger(d.logger))
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetCallback sets a function called after every daemon-initiated run.
func (d *Daemon) SetCallback(cb func(types.OrganizeResult)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Run blocks until ctx is cancelled or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.mutex.Unlock()
	defer func() {
		d.mutex.Lock()
		d.running = false
		d.mutex.Unlock()
	}()

	d.logger.With(log.F("store", d.store.Dir()), log.F("watch", d.config.Watch.Enabled)).Info("Daemon started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.scheduler.Run(ctx) })

	// stop tears the scheduler down before a startup error is returned
	stop := func(err error) error {
		cancel()
		_ = g.Wait()
		d.logger.With(log.F("error", err)).Error("Daemon failed to start watcher")
		return err
	}

	if d.config.Watch.Enabled {
		w, err := d.newWatcher(d.logger)
		if err != nil {
			return stop(err)
		}
		d.mutex.Lock()
		d.watcher = w
		d.mutex.Unlock()
		if err := w.Start(); err != nil {
			return stop(err)
		}
		defer w.Stop()
		d.syncWatches()
		g.Go(func() error { return d.watchLoop(ctx) })
	}

	err := g.Wait()
	d.logger.Info("Daemon stopped")
	return err
}

// RunAll processes every stored config once, in order.
func (d *Daemon) RunAll() []types.OrganizeResult {
	var results []types.OrganizeResult
	for _, cfg := range d.store.List() {
		results = append(results, d.process(cfg, "manual"))
	}
	return results
}

func (d *Daemon) runScheduled(_ context.Context, cfg *types.Config) {
	d.process(cfg, "schedule")
}

func (d *Daemon) process(cfg *types.Config, trigger string) types.OrganizeResult {
	d.runMu.Lock()
	res := d.engine.Process(cfg)
	d.runMu.Unlock()

	d.mutex.Lock()
	d.runs++
	if !res.OK() {
		d.failures++
	}
	d.processed += res.FilesMoved
	d.lastActivity = res.Started
	cb := d.callback
	d.mutex.Unlock()

	d.logger.With(
		log.F("directory", cfg.Directory),
		log.F("trigger", trigger),
		log.F("status", string(res.Status)),
		log.F("files", res.FilesMoved),
	).Debug("Daemon run finished")

	d.exportMetrics()
	if cb != nil {
		cb(res)
	}
	return res
}

func (d *Daemon) exportMetrics() {
	if d.recorder == nil || d.config.Metrics.Textfile == "" {
		return
	}
	if err := d.recorder.WriteTextfile(d.config.Metrics.Textfile); err != nil {
		d.logger.With(log.F("path", d.config.Metrics.Textfile), log.F("error", err)).Warn("Failed to write metrics textfile")
	}
}

// watchLoop debounces events per directory: a directory is processed once
// no event arrived for the debounce period, and only if its root still
// holds entries to route. The engine's own moves leave nothing pending, so
// they do not re-trigger a run.
func (d *Daemon) watchLoop(ctx context.Context) error {
	tick := d.debounce / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	resync := time.NewTicker(d.resync)
	defer resync.Stop()

	events := d.watcher.FileChannel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.mutex.Lock()
			if _, managed := d.roots[ev.Dir]; managed {
				d.pending[ev.Dir] = ev.Timestamp
			}
			d.mutex.Unlock()

		case now := <-ticker.C:
			for _, root := range d.quietRoots(now) {
				d.processTriggered(root)
			}

		case <-resync.C:
			d.syncWatches()
		}
	}
}

func (d *Daemon) quietRoots(now time.Time) []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	var ready []string
	for root, last := range d.pending {
		if now.Sub(last) >= d.debounce {
			ready = append(ready, root)
			delete(d.pending, root)
		}
	}
	return ready
}

func (d *Daemon) processTriggered(root string) {
	d.mutex.RLock()
	key, ok := d.roots[root]
	d.mutex.RUnlock()
	if !ok {
		return
	}
	cfg, err := d.store.Get(key)
	if err != nil {
		return
	}

	d.runMu.Lock()
	pending, err := d.engine.Pending(cfg)
	d.runMu.Unlock()
	if err != nil {
		d.logger.With(append([]log.Field{log.F("directory", key)}, log.ErrorFields(err)...)...).Warn("Cannot inspect watched directory")
		return
	}
	if len(pending) == 0 {
		return
	}
	d.process(cfg, "watch")
}

// syncWatches reloads the store and makes the watched set match the active
// configs.
func (d *Daemon) syncWatches() {
	if err := d.store.Reload(); err != nil {
		d.logger.With(log.ErrorFields(err)...).Warn("Failed to reload configs")
	}

	wanted := make(map[string]string)
	for _, cfg := range d.store.List() {
		if !cfg.Active {
			continue
		}
		root, err := cfg.Path()
		if err != nil {
			continue
		}
		wanted[root] = cfg.Directory
	}

	d.mutex.Lock()
	current := d.roots
	d.mutex.Unlock()

	next := make(map[string]string)
	for root, key := range wanted {
		if err := d.watcher.AddDirectory(root); err != nil {
			d.logger.With(log.F("directory", key), log.F("error", err)).Warn("Cannot watch directory")
			continue
		}
		next[root] = key
	}
	for root := range current {
		if _, keep := next[root]; !keep {
			d.watcher.RemoveDirectory(root)
		}
	}

	d.mutex.Lock()
	d.roots = next
	d.mutex.Unlock()
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var dirs []string
	if d.watcher != nil {
		dirs = d.watcher.GetDirectories()
	}
	return DaemonStatus{
		Running:          d.running,
		WatchDirectories: dirs,
		LastActivity:     d.lastActivity,
		Runs:             d.runs,
		Failures:         d.failures,
		FilesProcessed:   d.processed,
	}
}
