package organize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/pkg/types"

	"github.com/google/uuid"
)

// Recorder receives the result of every run. internal/metrics counts runs
// in prometheus collectors and internal/history keeps them in sqlite.
type Recorder interface {
	ObserveRun(operation string, result types.OrganizeResult)
}

// Run operations, as reported to the Recorder.
const (
	OpOrganize = "organize"
	OpReset    = "reset"
	OpValidate = "validate"
)

// Engine runs the filter pipeline over configured directories. It is
// synchronous: every call runs to completion before returning. Callers that
// share an Engine between goroutines must not process the same directory
// concurrently.
type Engine struct {
	logger    log.Logging
	recorders []Recorder
	extra     []Filter
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic sink. The default is log.Default().
func WithLogger(l log.Logging) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecorder attaches a run recorder. Recorders are called in the order
// they were attached.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorders = append(e.recorders, r) }
}

// WithFilters inserts additional filters into the organize pipeline at
// their declared priority.
func WithFilters(filters ...Filter) Option {
	return func(e *Engine) { e.extra = append(e.extra, filters...) }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pipeline returns the organize chain the engine would run.
func (e *Engine) Pipeline() *Chain {
	return NewChain(append(pipelineFilters(), e.extra...)...)
}

// Process organizes cfg.Directory. An inactive config is skipped without
// touching disk. Failures are reported in the result, never returned as a
// panic or exit.
func (e *Engine) Process(cfg *types.Config) types.OrganizeResult {
	if cfg == nil {
		return e.invalid(OpOrganize, "", errors.InvalidConfigf("config", "nil config"))
	}
	if !cfg.Active {
		res := e.begin(cfg.Directory)
		res.Status = types.StatusSkipped
		e.logger.With(log.F("directory", cfg.Directory), log.F("run_id", res.RunID)).Debug("Config inactive, skipping")
		e.observe(OpOrganize, res)
		return res
	}
	ctx, err := e.newContext(cfg)
	if err != nil {
		return e.invalid(OpOrganize, cfg.Directory, err)
	}
	return e.run(OpOrganize, ctx, e.Pipeline())
}

// ProcessAll processes configs in order. A failing config never stops the
// ones after it.
func (e *Engine) ProcessAll(configs []*types.Config) []types.OrganizeResult {
	results := make([]types.OrganizeResult, 0, len(configs))
	failed := 0
	for _, cfg := range configs {
		res := e.Process(cfg)
		if !res.OK() {
			failed++
		}
		results = append(results, res)
	}
	e.logger.With(log.F("configs", len(configs)), log.F("failed", failed)).Info("Processed all configs")
	return results
}

// ResetDirectory flattens directory without reference to any config: the
// contents of every immediate subdirectory move to the root, nested
// directories are removed, and the immediate subdirectories are kept.
func (e *Engine) ResetDirectory(directory string) types.OrganizeResult {
	ctx := &Context{Directory: directory}
	return e.run(OpReset, ctx, NewChain(append(guardFilters(), newFlattenSubdirsFilter())...))
}

// Reset moves every file out of cfg's categories back to the root. Only the
// directories the config knows about are touched.
func (e *Engine) Reset(cfg *types.Config) types.OrganizeResult {
	if cfg == nil {
		return e.invalid(OpReset, "", errors.InvalidConfigf("config", "nil config"))
	}
	ctx, err := e.newContext(cfg)
	if err != nil {
		return e.invalid(OpReset, cfg.Directory, err)
	}
	return e.run(OpReset, ctx, NewChain(append(guardFilters(), newResetFilter(true), newCleanupFilter())...))
}

// ValidateDirectory runs only the guard filters. The CLI calls it before
// creating a config.
func (e *Engine) ValidateDirectory(directory string) error {
	ctx := &Context{Directory: directory}
	return e.run(OpValidate, ctx, NewChain(guardFilters()...)).Error
}

// Pending lists the root entries of cfg.Directory that a run would route,
// sorted by name. The watcher uses it to tell user activity from the
// engine's own moves.
func (e *Engine) Pending(cfg *types.Config) ([]string, error) {
	if cfg == nil || !cfg.Active {
		return nil, nil
	}
	root, err := cfg.Path()
	if err != nil {
		return nil, errors.NewFileError("cannot resolve directory", cfg.Directory, errors.DirectoryNotFound, err)
	}
	match, err := cfg.IgnoreMatcher()
	if err != nil {
		return nil, err
	}
	names, err := rootFiles(root)
	if err != nil {
		return nil, err
	}
	pending := names[:0]
	for _, name := range names {
		if !match(name) {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

func (e *Engine) newContext(cfg *types.Config) (*Context, error) {
	clone := cfg.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	match, err := clone.IgnoreMatcher()
	if err != nil {
		return nil, err
	}
	return &Context{Directory: clone.Directory, Config: clone, Ignore: match}, nil
}

func (e *Engine) begin(directory string) types.OrganizeResult {
	return types.OrganizeResult{
		RunID:     uuid.NewString(),
		Directory: directory,
		Started:   e.now(),
	}
}

func (e *Engine) run(op string, ctx *Context, chain *Chain) types.OrganizeResult {
	res := e.begin(ctx.Directory)
	logger := e.logger.With(log.F("directory", ctx.Directory), log.F("run_id", res.RunID), log.F("op", op))
	ctx.Logger = logger

	resp := chain.Execute(ctx)

	res.Duration = e.now().Sub(res.Started)
	res.FilesMoved = ctx.FilesMoved
	res.BytesMoved = ctx.BytesMoved
	if resp.OK() {
		res.Status = types.StatusSuccess
		logger.With(log.F("files", res.FilesMoved), log.F("duration", res.Duration)).Info("Run completed")
	} else {
		res.Status = types.StatusFailure
		res.Filter = resp.Filter
		res.Error = resp.Err
		logger.With(log.F("filter", resp.Filter), log.F("error_kind", errors.KindOf(resp.Err).String())).
			Warn("Run stopped, config skipped")
	}
	e.observe(op, res)
	return res
}

func (e *Engine) invalid(op, directory string, err error) types.OrganizeResult {
	res := e.begin(directory)
	res.Status = types.StatusFailure
	res.Filter = "validate"
	res.Error = err
	e.logger.With(append([]log.Field{log.F("directory", directory)}, log.ErrorFields(err)...)...).
		Warn("Invalid config, skipping")
	e.observe(op, res)
	return res
}

func (e *Engine) observe(op string, res types.OrganizeResult) {
	if op == OpValidate {
		return
	}
	for _, r := range e.recorders {
		r.ObserveRun(op, res)
	}
}

// Describe renders the pipeline for display, one "priority name" per line.
func (e *Engine) Describe() string {
	var b strings.Builder
	for _, f := range e.Pipeline().Filters() {
		fmt.Fprintf(&b, "%3d  %s\n", f.Priority(), f.Name())
	}
	return b.String()
}
