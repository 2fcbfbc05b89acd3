package organize

import (
	"os"
	"path/filepath"

	"catsort/internal/errors"
	"catsort/pkg/types"
)

const (
	PriorityCategoryDirs  = 40
	PriorityExtensionDirs = 50
)

// categoryDirFilter creates a directory for every category, special ones
// included. Existing directories are left alone; a non-directory squatting
// on a category name is an error.
type categoryDirFilter struct{ step }

func newCategoryDirFilter() Filter {
	return categoryDirFilter{step{"category-dirs", PriorityCategoryDirs}}
}

func (f categoryDirFilter) Do(ctx *Context, chain *Chain) Response {
	for _, name := range ctx.Config.AllCategoryNames() {
		dir := filepath.Join(ctx.Root, name)
		info, err := os.Lstat(dir)
		switch {
		case err == nil && !info.IsDir():
			return fail(ctx, f, errors.NewFileError("category path exists and is not a directory", dir, errors.FilesystemError, nil))
		case err == nil:
			continue
		case !os.IsNotExist(err):
			return fail(ctx, f, errors.FilesystemFailure("stat", dir, err))
		}
		if err := os.Mkdir(dir, 0755); err != nil {
			return fail(ctx, f, errors.FilesystemFailure("create directory", dir, err))
		}
		ctx.Logger.Debugf("Created category directory %s", dir)
	}
	return chain.Next(ctx)
}

// extensionDirFilter keeps extension subdirectories in line with each
// category's flag: present for every declared extension when the flag is
// set, flattened back into the category root when it is not.
type extensionDirFilter struct{ step }

func newExtensionDirFilter() Filter {
	return extensionDirFilter{step{"extension-dirs", PriorityExtensionDirs}}
}

func (f extensionDirFilter) Do(ctx *Context, chain *Chain) Response {
	for _, cat := range ctx.Config.Categories {
		catDir := filepath.Join(ctx.Root, cat.Name)
		for _, ext := range cat.Extensions {
			sub := filepath.Join(catDir, types.ExtensionDir(ext))
			if cat.CategorizeByExtension {
				if err := os.MkdirAll(sub, 0755); err != nil {
					return fail(ctx, f, errors.FilesystemFailure("create directory", sub, err))
				}
				continue
			}

			isDir, err := isRealDir(sub)
			if err != nil {
				return fail(ctx, f, err)
			}
			if !isDir {
				continue
			}
			if err := flattenInto(sub, catDir, nil); err != nil {
				return fail(ctx, f, err)
			}
			if err := os.Remove(sub); err != nil {
				return fail(ctx, f, errors.FilesystemFailure("remove directory", sub, err))
			}
			ctx.Logger.Debugf("Flattened extension directory %s", sub)
		}
	}
	return chain.Next(ctx)
}
