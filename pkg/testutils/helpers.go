package testutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"catsort/pkg/types"

	"github.com/stretchr/testify/require"
)

// CreateTestFilesWithContent creates files under dir. Names may contain
// slashes; parent directories are created as needed.
func CreateTestFilesWithContent(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CreateTestFilesWithDefault creates a small mixed set of files in dir.
func CreateTestFilesWithDefault(t *testing.T, dir string) {
	files := map[string]string{
		"a.txt":   "text",
		"b.py":    "print('hi')",
		"c.bin":   "\x00\x01",
		".secret": "token",
	}
	CreateTestFilesWithContent(t, dir, files)
}

// ListFiles returns every non-directory entry below dir as slash-separated
// relative paths, sorted.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()
	return walk(t, dir, false)
}

// ListDirs returns every directory below dir (dir excluded) as
// slash-separated relative paths, sorted.
func ListDirs(t *testing.T, dir string) []string {
	t.Helper()
	return walk(t, dir, true)
}

func walk(t *testing.T, dir string, dirs bool) []string {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir || d.IsDir() != dirs {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

// SampleConfig is the Docs/Code config used across packages: Docs holds
// .txt and .pdf, Code holds .py and is split by extension.
func SampleConfig(t *testing.T, dir string) *types.Config {
	t.Helper()
	docs, err := types.NewCategory("Docs", false, ".txt", ".pdf")
	require.NoError(t, err)
	code, err := types.NewCategory("Code", true, ".py")
	require.NoError(t, err)
	cfg, err := types.NewConfig(dir, []types.Category{docs, code}, types.DefaultSchedule())
	require.NoError(t, err)
	return cfg
}

// StripANSI removes ANSI escape sequences from a string
func StripANSI(str string) string {
	var result []rune
	inEscape := false
	for _, r := range str {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result = append(result, r)
	}
	return string(result)
}
