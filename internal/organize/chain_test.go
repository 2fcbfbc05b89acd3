package organize_test

import (
	"testing"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/internal/organize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingFilter appends its name to a shared trace and optionally stops
// the chain.
type recordingFilter struct {
	name     string
	priority int
	trace    *[]string
	stop     error
}

func (f recordingFilter) Name() string  { return f.name }
func (f recordingFilter) Priority() int { return f.priority }

func (f recordingFilter) Do(ctx *organize.Context, chain *organize.Chain) organize.Response {
	*f.trace = append(*f.trace, f.name)
	if f.stop != nil {
		return organize.Response{Filter: f.name, Err: f.stop}
	}
	return chain.Next(ctx)
}

func TestChainOrdering(t *testing.T) {
	var trace []string
	chain := organize.NewChain(
		recordingFilter{name: "c", priority: 30, trace: &trace},
		recordingFilter{name: "a", priority: 10, trace: &trace},
		recordingFilter{name: "b1", priority: 20, trace: &trace},
		recordingFilter{name: "b2", priority: 20, trace: &trace},
	)

	resp := chain.Execute(&organize.Context{Logger: log.Discard()})
	assert.True(t, resp.OK())
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, trace)

	names := make([]string, 0, 4)
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, trace, names)
}

func TestChainShortCircuit(t *testing.T) {
	var trace []string
	boom := errors.New("boom")
	chain := organize.NewChain(
		recordingFilter{name: "first", priority: 1, trace: &trace},
		recordingFilter{name: "stopper", priority: 2, trace: &trace, stop: boom},
		recordingFilter{name: "never", priority: 3, trace: &trace},
	)

	resp := chain.Execute(&organize.Context{Logger: log.Discard()})
	require.False(t, resp.OK())
	assert.Equal(t, "stopper", resp.Filter)
	assert.Same(t, boom, resp.Err)
	assert.Equal(t, []string{"first", "stopper"}, trace)

	t.Run("execute restarts from the first filter", func(t *testing.T) {
		trace = nil
		chain.Execute(&organize.Context{Logger: log.Discard()})
		assert.Equal(t, []string{"first", "stopper"}, trace)
	})
}

func TestEmptyChainSucceeds(t *testing.T) {
	resp := organize.NewChain().Execute(&organize.Context{})
	assert.True(t, resp.OK())
	assert.Empty(t, resp.Filter)
}

func TestPipelineOrder(t *testing.T) {
	engine := organize.New(organize.WithLogger(log.Discard()))
	var names []string
	var priorities []int
	for _, f := range engine.Pipeline().Filters() {
		names = append(names, f.Name())
		priorities = append(priorities, f.Priority())
	}
	assert.Equal(t, []string{
		"directory-exists", "critical-directory", "permissions",
		"category-dirs", "extension-dirs", "reset",
		"hidden-files", "classify", "cleanup",
	}, names)
	assert.IsIncreasing(t, priorities)
	assert.Contains(t, engine.Describe(), " 10  directory-exists\n")
}
