package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"catsort/internal/log"
	"catsort/pkg/types"

	"golang.org/x/sync/errgroup"
)

// Source lists the configs to schedule. The store satisfies it.
type Source interface {
	List() []*types.Config
}

// Reloader is implemented by sources that can pick up changes made by
// other processes.
type Reloader interface {
	Reload() error
}

// RunFunc is called for every due config, one at a time.
type RunFunc func(ctx context.Context, cfg *types.Config)

type entry struct {
	cfg  *types.Config
	next time.Time
}

// Scheduler fires RunFunc for every active config whose schedule is active
// and due. Runs never overlap.
type Scheduler struct {
	source  Source
	run     RunFunc
	logger  log.Logging
	tick    time.Duration
	refresh time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the diagnostic sink.
func WithLogger(l log.Logging) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTick sets how often due entries are checked. Default one second.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

// WithRefresh sets how often the source is re-read. Default 30 seconds.
func WithRefresh(d time.Duration) Option {
	return func(s *Scheduler) { s.refresh = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler. Nothing runs until Run is called.
func New(source Source, run RunFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:  source,
		run:     run,
		logger:  log.Default(),
		tick:    time.Second,
		refresh: 30 * time.Second,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.F("component", "scheduler"))
	return s
}

// Run schedules until ctx is cancelled. It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Refresh()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(s.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if r, ok := s.source.(Reloader); ok {
					if err := r.Reload(); err != nil {
						s.logger.With(log.ErrorFields(err)...).Warn("Failed to reload configs")
						continue
					}
				}
				s.Refresh()
			}
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.RunDue(ctx)
			}
		}
	})
	return g.Wait()
}

// Refresh syncs the entry table with the source. Entries whose schedule is
// unchanged keep their next run time.
func (s *Scheduler) Refresh() {
	now := s.now()
	seen := make(map[string]bool)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range s.source.List() {
		if !cfg.Active || !cfg.Schedule.Active {
			continue
		}
		seen[cfg.Directory] = true
		if e, ok := s.entries[cfg.Directory]; ok && e.cfg.Schedule == cfg.Schedule {
			e.cfg = cfg
			continue
		}
		next, err := First(cfg.Schedule, now)
		if err != nil {
			s.logger.With(append([]log.Field{log.F("directory", cfg.Directory)}, log.ErrorFields(err)...)...).
				Warn("Cannot schedule config")
			continue
		}
		s.entries[cfg.Directory] = &entry{cfg: cfg, next: next}
		s.logger.With(log.F("directory", cfg.Directory), log.F("next", next)).Info("Scheduled config")
	}
	for dir := range s.entries {
		if !seen[dir] {
			delete(s.entries, dir)
			s.logger.With(log.F("directory", dir)).Debug("Unscheduled config")
		}
	}
}

// RunDue runs every entry whose time has come and advances it. An entry
// that fell far behind, e.g. after a suspend, is rescheduled from now
// rather than replayed.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*types.Config
	for _, e := range s.entries {
		if e.next.After(now) {
			continue
		}
		due = append(due, e.cfg)
		e.next = After(e.cfg.Schedule, e.next)
		if !e.next.After(now) {
			if next, err := First(e.cfg.Schedule, now); err == nil {
				e.next = next
			}
		}
	}
	s.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].Directory < due[j].Directory })

	for _, cfg := range due {
		if ctx.Err() != nil {
			return
		}
		s.logger.WithContext(ctx).With(log.F("directory", cfg.Directory)).Debug("Running scheduled config")
		s.run(ctx, cfg)
	}
}

// Next reports the next run time for directory.
func (s *Scheduler) Next(directory string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[directory]
	if !ok {
		return time.Time{}, false
	}
	return e.next, true
}
