package organize

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"catsort/internal/errors"
)

const maxCollisionAttempts = 1000

// moveEntry moves src into destDir under its own name. The entry is never
// followed if it is a symlink, and an existing destination is never
// overwritten: the moved entry gets a "_(N)" suffix instead. It returns the
// final path and the size of the moved entry (zero for links).
func moveEntry(src, destDir string) (string, int64, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return "", 0, errors.FilesystemFailure("stat", src, err)
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	if filepath.Clean(src) == dest {
		return dest, 0, nil
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", 0, errors.FilesystemFailure("create directory", destDir, err)
	}

	final, err := findFreeName(dest)
	if err != nil {
		return "", 0, err
	}
	if err := os.Rename(src, final); err != nil {
		return "", 0, errors.FilesystemFailure("move", src, err)
	}

	var size int64
	if info.Mode().IsRegular() {
		size = info.Size()
	}
	return final, size, nil
}

// findFreeName returns path if nothing exists there, otherwise the first
// free "name_(N).ext" sibling. Dot-files keep their leading dot:
// ".env" becomes ".env_(1)".
func findFreeName(path string) (string, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", errors.FilesystemFailure("stat", path, err)
	}

	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	if ext == name {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)

	for counter := 1; counter <= maxCollisionAttempts; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_(%d)%s", stem, counter, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", errors.NewFileError(
		fmt.Sprintf("no free name after %d attempts", maxCollisionAttempts),
		path, errors.FilesystemError, nil)
}

// isRealDir reports whether path is a directory and not a link to one.
func isRealDir(path string) (bool, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.FilesystemFailure("stat", path, err)
	}
	return info.IsDir(), nil
}

// flattenInto moves every non-directory entry found anywhere below dir into
// target, then removes the directories left below dir. dir itself stays.
func flattenInto(dir, target string, moved func(size int64)) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.FilesystemFailure("walk", dir, err)
	}

	for _, file := range files {
		_, size, err := moveEntry(file, target)
		if err != nil {
			return err
		}
		if moved != nil {
			moved(size)
		}
	}
	return removeEmptyDirs(dir)
}

// removeEmptyDirs removes empty directories below dir, deepest first, so a
// chain of empty directories disappears in one pass. dir itself is kept.
func removeEmptyDirs(dir string) error {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return errors.FilesystemFailure("walk", dir, err)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil {
			return errors.FilesystemFailure("read directory", d, err)
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(d); err != nil {
			return errors.FilesystemFailure("remove directory", d, err)
		}
	}
	return nil
}

// rootFiles lists the names of non-directory entries directly in root.
func rootFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.FilesystemFailure("read directory", root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
