package organize

import (
	"sort"

	"catsort/internal/log"
	"catsort/pkg/types"
)

// Context is the mutable value handed down the chain. Directory is the path
// as configured; Root is filled in by the existence filter with the
// resolved, absolute directory every later filter works on.
type Context struct {
	Directory string
	Root      string
	Config    *types.Config
	Logger    log.Logging
	Ignore    types.Matcher

	FilesMoved int
	BytesMoved int64
}

func (c *Context) ignored(name string) bool {
	return c.Ignore != nil && c.Ignore(name)
}

func (c *Context) recordMove(size int64) {
	c.FilesMoved++
	c.BytesMoved += size
}

// Response is what a filter hands back up the chain. A zero Response means
// the chain ran to the end.
type Response struct {
	Filter string
	Err    error
}

// OK reports whether no filter stopped the chain.
func (r Response) OK() bool {
	return r.Err == nil
}

// Filter is one step of the pipeline. Do either calls chain.Next(ctx) and
// returns its response, or returns its own failure without calling Next.
type Filter interface {
	Name() string
	Priority() int
	Do(ctx *Context, chain *Chain) Response
}

// Chain runs filters in ascending priority order. Equal priorities keep
// their insertion order. A Chain is not safe for concurrent use.
type Chain struct {
	filters []Filter
	pos     int
}

// NewChain sorts filters once by priority.
func NewChain(filters ...Filter) *Chain {
	sorted := make([]Filter, len(filters))
	copy(sorted, filters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain{filters: sorted}
}

// Filters returns the filters in execution order.
func (c *Chain) Filters() []Filter {
	out := make([]Filter, len(c.filters))
	copy(out, c.filters)
	return out
}

// Execute runs the chain from the first filter.
func (c *Chain) Execute(ctx *Context) Response {
	c.pos = 0
	return c.Next(ctx)
}

// Next hands ctx to the following filter, or reports success when none is
// left.
func (c *Chain) Next(ctx *Context) Response {
	if c.pos >= len(c.filters) {
		return Response{}
	}
	f := c.filters[c.pos]
	c.pos++
	return f.Do(ctx, c)
}

// step carries the name and priority shared by every concrete filter.
type step struct {
	name     string
	priority int
}

func (s step) Name() string  { return s.name }
func (s step) Priority() int { return s.priority }

// fail logs err against the filter and turns it into a short-circuit
// response.
func fail(ctx *Context, f Filter, err error) Response {
	fields := append([]log.Field{log.F("filter", f.Name())}, log.ErrorFields(err)...)
	ctx.Logger.With(fields...).Error("Filter stopped the chain")
	return Response{Filter: f.Name(), Err: err}
}
