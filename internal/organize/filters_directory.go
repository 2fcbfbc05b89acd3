package organize

import (
	"os"
	"path/filepath"

	"catsort/internal/errors"
	"catsort/pkg/types"
)

// Guard filter priorities. Everything after PriorityPermission may assume
// ctx.Root is an existing, writable, non-critical directory.
const (
	PriorityExistence  = 10
	PriorityCritical   = 20
	PriorityPermission = 30
)

// existenceFilter resolves ctx.Directory into ctx.Root and fails when it is
// not an existing directory. Symlinks on the path are resolved here so the
// guards below see the real location.
type existenceFilter struct{ step }

func newExistenceFilter() Filter {
	return existenceFilter{step{"directory-exists", PriorityExistence}}
}

func (f existenceFilter) Do(ctx *Context, chain *Chain) Response {
	abs, err := types.ExpandPath(ctx.Directory)
	if err != nil {
		return fail(ctx, f, errors.NewFileError("cannot resolve directory", ctx.Directory, errors.DirectoryNotFound, err))
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fail(ctx, f, errors.NewFileError("directory does not exist", abs, errors.DirectoryNotFound, err))
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return fail(ctx, f, errors.NewFileError("directory does not exist", resolved, errors.DirectoryNotFound, err))
	}
	if !info.IsDir() {
		return fail(ctx, f, errors.NewFileError("not a directory", resolved, errors.DirectoryNotFound, nil))
	}
	ctx.Root = resolved
	return chain.Next(ctx)
}

type criticalFilter struct{ step }

func newCriticalFilter() Filter {
	return criticalFilter{step{"critical-directory", PriorityCritical}}
}

func (f criticalFilter) Do(ctx *Context, chain *Chain) Response {
	abs, _ := types.ExpandPath(ctx.Directory)
	if IsCriticalPath(ctx.Root) || (abs != "" && IsCriticalPath(abs)) {
		return fail(ctx, f, errors.NewFileError("refusing to organize a system directory", ctx.Root, errors.CriticalDirectory, nil))
	}
	return chain.Next(ctx)
}

type permissionFilter struct{ step }

func newPermissionFilter() Filter {
	return permissionFilter{step{"permissions", PriorityPermission}}
}

func (f permissionFilter) Do(ctx *Context, chain *Chain) Response {
	if err := canReadWrite(ctx.Root); err != nil {
		return fail(ctx, f, errors.NewFileError("directory is not readable and writable", ctx.Root, errors.InsufficientPermissions, err))
	}
	return chain.Next(ctx)
}

// guardFilters are the checks every entry point runs before touching disk.
func guardFilters() []Filter {
	return []Filter{newExistenceFilter(), newCriticalFilter(), newPermissionFilter()}
}
