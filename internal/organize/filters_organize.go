package organize

import (
	"os"
	"path/filepath"
	"strings"

	"catsort/internal/errors"
	"catsort/pkg/types"
)

const (
	PriorityReset    = 60
	PriorityHidden   = 70
	PriorityClassify = 80
	PriorityCleanup  = 90
)

// resetFilter moves every file under every category back to the root and
// removes the emptied subdirectories. Category roots stay. When count is
// set the moves are reported in the run totals.
type resetFilter struct {
	step
	count bool
}

func newResetFilter(count bool) Filter {
	return resetFilter{step: step{"reset", PriorityReset}, count: count}
}

func (f resetFilter) Do(ctx *Context, chain *Chain) Response {
	var moved func(int64)
	if f.count {
		moved = ctx.recordMove
	}
	for _, name := range ctx.Config.AllCategoryNames() {
		dir := filepath.Join(ctx.Root, name)
		isDir, err := isRealDir(dir)
		if err != nil {
			return fail(ctx, f, err)
		}
		if !isDir {
			continue
		}
		if err := flattenInto(dir, ctx.Root, moved); err != nil {
			return fail(ctx, f, err)
		}
	}
	return chain.Next(ctx)
}

// hiddenFilter routes root-level dot-files to the hidden bucket regardless
// of extension.
type hiddenFilter struct{ step }

func newHiddenFilter() Filter {
	return hiddenFilter{step{"hidden-files", PriorityHidden}}
}

func (f hiddenFilter) Do(ctx *Context, chain *Chain) Response {
	names, err := rootFiles(ctx.Root)
	if err != nil {
		return fail(ctx, f, err)
	}
	bucket := filepath.Join(ctx.Root, types.HiddenName)
	for _, name := range names {
		if !strings.HasPrefix(name, ".") || ctx.ignored(name) {
			continue
		}
		if err := route(ctx, name, bucket); err != nil {
			return fail(ctx, f, err)
		}
	}
	return chain.Next(ctx)
}

// classifyFilter routes the remaining root files by extension, into the
// owning category, its extension subdirectory, or Uncategorized.
type classifyFilter struct{ step }

func newClassifyFilter() Filter {
	return classifyFilter{step{"classify", PriorityClassify}}
}

func (f classifyFilter) Do(ctx *Context, chain *Chain) Response {
	names, err := rootFiles(ctx.Root)
	if err != nil {
		return fail(ctx, f, err)
	}
	index := ctx.Config.ExtensionIndex()
	for _, name := range names {
		if strings.HasPrefix(name, ".") || ctx.ignored(name) {
			continue
		}
		if err := route(ctx, name, destinationFor(ctx.Root, name, index)); err != nil {
			return fail(ctx, f, err)
		}
	}
	return chain.Next(ctx)
}

// Destination returns the directory, relative to the root, that a root file
// named name is routed to under cfg.
func Destination(cfg *types.Config, name string) string {
	if strings.HasPrefix(name, ".") {
		return types.HiddenName
	}
	return destinationFor("", name, cfg.ExtensionIndex())
}

// destinationFor picks the directory a root file belongs in.
func destinationFor(root, name string, index map[string]*types.Category) string {
	ext := strings.ToLower(filepath.Ext(name))
	cat, ok := index[ext]
	if !ok || ext == "" {
		return filepath.Join(root, types.UncategorizedName)
	}
	if cat.CategorizeByExtension {
		return filepath.Join(root, cat.Name, types.ExtensionDir(ext))
	}
	return filepath.Join(root, cat.Name)
}

func route(ctx *Context, name, destDir string) error {
	src := filepath.Join(ctx.Root, name)
	dest, size, err := moveEntry(src, destDir)
	if err != nil {
		return err
	}
	ctx.recordMove(size)
	ctx.Logger.Debugf("Moved %s -> %s", src, dest)
	return nil
}

// cleanupFilter removes empty subdirectories inside every category. The
// category roots themselves are kept even when empty.
type cleanupFilter struct{ step }

func newCleanupFilter() Filter {
	return cleanupFilter{step{"cleanup", PriorityCleanup}}
}

func (f cleanupFilter) Do(ctx *Context, chain *Chain) Response {
	for _, name := range ctx.Config.AllCategoryNames() {
		dir := filepath.Join(ctx.Root, name)
		isDir, err := isRealDir(dir)
		if err != nil {
			return fail(ctx, f, err)
		}
		if !isDir {
			continue
		}
		if err := removeEmptyDirs(dir); err != nil {
			return fail(ctx, f, err)
		}
	}
	return chain.Next(ctx)
}

// flattenSubdirsFilter undoes any organization without a config: the
// contents of every immediate subdirectory are moved to the root and the
// nested directories removed. Dot-directories other than the hidden bucket
// (.git and the like) are not touched.
type flattenSubdirsFilter struct{ step }

func newFlattenSubdirsFilter() Filter {
	return flattenSubdirsFilter{step{"flatten", PriorityReset}}
}

func (f flattenSubdirsFilter) Do(ctx *Context, chain *Chain) Response {
	entries, err := os.ReadDir(ctx.Root)
	if err != nil {
		return fail(ctx, f, errors.FilesystemFailure("read directory", ctx.Root, err))
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") && e.Name() != types.HiddenName {
			continue
		}
		if err := flattenInto(filepath.Join(ctx.Root, e.Name()), ctx.Root, ctx.recordMove); err != nil {
			return fail(ctx, f, err)
		}
	}
	return chain.Next(ctx)
}

// pipelineFilters is the canonical organize pipeline.
func pipelineFilters() []Filter {
	return append(guardFilters(),
		newCategoryDirFilter(),
		newExtensionDirFilter(),
		newResetFilter(false),
		newHiddenFilter(),
		newClassifyFilter(),
		newCleanupFilter(),
	)
}
