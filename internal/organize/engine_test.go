package organize_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/internal/organize"
	"catsort/pkg/testutils"
	"catsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	ops     []string
	results []types.OrganizeResult
}

func (r *fakeRecorder) ObserveRun(op string, res types.OrganizeResult) {
	r.ops = append(r.ops, op)
	r.results = append(r.results, res)
}

func newEngine(opts ...organize.Option) *organize.Engine {
	return organize.New(append([]organize.Option{organize.WithLogger(log.Discard())}, opts...)...)
}

func TestClassification(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithDefault(t, dir)
	cfg := testutils.SampleConfig(t, dir)

	res := newEngine().Process(cfg)
	require.NoError(t, res.Error)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.FilesMoved)
	assert.Equal(t, int64(len("text")+len("print('hi')")+2+len("token")), res.BytesMoved)

	assert.Equal(t, []string{
		".hidden/.secret",
		"Code/py/b.py",
		"Docs/a.txt",
		"Uncategorized/c.bin",
	}, testutils.ListFiles(t, dir))
	assert.Equal(t, []string{".hidden", "Code", "Code/py", "Docs", "Uncategorized"}, testutils.ListDirs(t, dir))
}

func TestExtensionMatchingIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"REPORT.TXT": "x",
		"noext":      "y",
	})

	res := newEngine().Process(testutils.SampleConfig(t, dir))
	require.NoError(t, res.Error)
	assert.Equal(t, []string{"Docs/REPORT.TXT", "Uncategorized/noext"}, testutils.ListFiles(t, dir))
}

func TestIdempotence(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithDefault(t, dir)
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"notes.pdf": "pdf",
		"tool.py":   "py",
	})
	cfg := testutils.SampleConfig(t, dir)
	engine := newEngine()

	require.NoError(t, engine.Process(cfg).Error)
	files, dirs := testutils.ListFiles(t, dir), testutils.ListDirs(t, dir)

	require.NoError(t, engine.Process(cfg).Error)
	assert.Equal(t, files, testutils.ListFiles(t, dir))
	assert.Equal(t, dirs, testutils.ListDirs(t, dir))
}

func TestCriticalDirectoryRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix system paths")
	}
	cfg := testutils.SampleConfig(t, "/etc")
	rec := &fakeRecorder{}

	res := newEngine(organize.WithRecorder(rec)).Process(cfg)
	require.Error(t, res.Error)
	assert.Equal(t, types.StatusFailure, res.Status)
	assert.True(t, errors.IsCriticalDirectory(res.Error))
	assert.Equal(t, "critical-directory", res.Filter)
	assert.Zero(t, res.FilesMoved)
	assert.NoDirExists(t, "/etc/Uncategorized")
	assert.NoDirExists(t, "/etc/Docs")
	require.Len(t, rec.results, 1)
	assert.Equal(t, organize.OpOrganize, rec.ops[0])

	t.Run("through a symlink", func(t *testing.T) {
		link := filepath.Join(t.TempDir(), "innocent")
		require.NoError(t, os.Symlink("/etc", link))

		res := newEngine().Process(testutils.SampleConfig(t, link))
		assert.True(t, errors.IsCriticalDirectory(res.Error))
		assert.NoDirExists(t, "/etc/Uncategorized")
	})
}

func TestMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	res := newEngine().Process(testutils.SampleConfig(t, dir))
	assert.True(t, errors.IsDirectoryNotFound(res.Error))
	assert.Equal(t, "directory-exists", res.Filter)
	assert.NoDirExists(t, dir)

	t.Run("a file is not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "plain")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		res := newEngine().Process(testutils.SampleConfig(t, file))
		assert.True(t, errors.IsDirectoryNotFound(res.Error))
	})
}

func TestInsufficientPermissions(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"a.txt": "x"})
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	res := newEngine().Process(testutils.SampleConfig(t, dir))
	assert.True(t, errors.IsInsufficientPermissions(res.Error))
	assert.Equal(t, "permissions", res.Filter)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestInactiveConfigIsSkipped(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithDefault(t, dir)
	before := testutils.ListFiles(t, dir)
	cfg := testutils.SampleConfig(t, dir)
	cfg.Active = false

	res := newEngine().Process(cfg)
	assert.NoError(t, res.Error)
	assert.Equal(t, types.StatusSkipped, res.Status)
	assert.True(t, res.OK())
	assert.Equal(t, before, testutils.ListFiles(t, dir))
	assert.Empty(t, testutils.ListDirs(t, dir))
}

func TestInvalidConfigIsRejected(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"a.txt": "x"})
	cfg := &types.Config{
		Directory: dir,
		Active:    true,
		Categories: []types.Category{
			{Name: "A", Extensions: []string{".txt"}},
			{Name: "B", Extensions: []string{".txt"}},
		},
		Schedule: types.DefaultSchedule(),
	}

	res := newEngine().Process(cfg)
	assert.True(t, errors.IsInvalidConfig(res.Error))
	assert.Equal(t, "validate", res.Filter)
	assert.Equal(t, []string{"a.txt"}, testutils.ListFiles(t, dir))
}

func TestResetDirectory(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"Docs/a.txt":   "a",
		"Code/py/b.py": "b",
		".git/HEAD":    "ref",
		".hidden/.env": "x",
		"loose.bin":    "z",
	})

	res := newEngine().ResetDirectory(dir)
	require.NoError(t, res.Error)
	assert.Equal(t, 3, res.FilesMoved)

	assert.Equal(t, []string{".env", ".git/HEAD", "a.txt", "b.py", "loose.bin"}, testutils.ListFiles(t, dir))
	assert.Equal(t, []string{".git", ".hidden", "Code", "Docs"}, testutils.ListDirs(t, dir))
	assert.NoDirExists(t, filepath.Join(dir, "Code", "py"))
}

func TestResetAfterOrganize(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithDefault(t, dir)
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"projects/main.go": "package main"})
	cfg := testutils.SampleConfig(t, dir)
	engine := newEngine()
	require.NoError(t, engine.Process(cfg).Error)

	res := engine.Reset(cfg)
	require.NoError(t, res.Error)
	assert.Equal(t, 4, res.FilesMoved)
	assert.Equal(t, []string{".secret", "a.txt", "b.py", "c.bin", "projects/main.go"}, testutils.ListFiles(t, dir))
	assert.Equal(t, []string{".hidden", "Code", "Docs", "Uncategorized", "projects"}, testutils.ListDirs(t, dir))
}

func TestCleanupRemovesOnlyEmpties(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"b.py": "b"})
	docs, err := types.NewCategory("Docs", false, ".txt")
	require.NoError(t, err)
	code, err := types.NewCategory("Code", true, ".py", ".rb")
	require.NoError(t, err)
	cfg, err := types.NewConfig(dir, []types.Category{docs, code}, types.DefaultSchedule())
	require.NoError(t, err)

	require.NoError(t, newEngine().Process(cfg).Error)

	assert.FileExists(t, filepath.Join(dir, "Code", "py", "b.py"))
	assert.NoDirExists(t, filepath.Join(dir, "Code", "rb"))
	assert.DirExists(t, filepath.Join(dir, "Code"))
	assert.DirExists(t, filepath.Join(dir, "Docs"))
	assert.DirExists(t, filepath.Join(dir, types.UncategorizedName))
	assert.DirExists(t, filepath.Join(dir, types.HiddenName))
}

func TestToggleCategorizeByExtensionHeals(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"b.py": "b"})
	cfg := testutils.SampleConfig(t, dir)
	engine := newEngine()
	require.NoError(t, engine.Process(cfg).Error)
	require.FileExists(t, filepath.Join(dir, "Code", "py", "b.py"))

	cfg.Categories[1].CategorizeByExtension = false
	require.NoError(t, engine.Process(cfg).Error)
	assert.FileExists(t, filepath.Join(dir, "Code", "b.py"))
	assert.NoDirExists(t, filepath.Join(dir, "Code", "py"))
}

func TestCollisionNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"a.txt":      "from root",
		"Docs/a.txt": "already filed",
	})

	require.NoError(t, newEngine().Process(testutils.SampleConfig(t, dir)).Error)

	files := testutils.ListFiles(t, dir)
	assert.Equal(t, []string{"Docs/a.txt", "Docs/a_(1).txt"}, files)

	var contents []string
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f)))
		require.NoError(t, err)
		contents = append(contents, string(data))
	}
	sort.Strings(contents)
	assert.Equal(t, []string{"already filed", "from root"}, contents)
}

func TestIgnoreAndUserDirectories(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"movie.mkv.part":   "partial",
		".DS_Store":        "junk",
		"a.txt":            "a",
		"projects/main.go": "package main",
	})
	cfg := testutils.SampleConfig(t, dir)
	cfg.Ignore = []string{"*.part", ".DS_Store"}

	require.NoError(t, newEngine().Process(cfg).Error)
	assert.Equal(t, []string{".DS_Store", "Docs/a.txt", "movie.mkv.part", "projects/main.go"}, testutils.ListFiles(t, dir))
}

func TestSymlinksAreMovedNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	outside := t.TempDir()
	target := filepath.Join(outside, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("real"), 0644))

	dir := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.txt")))

	require.NoError(t, newEngine().Process(testutils.SampleConfig(t, dir)).Error)

	info, err := os.Lstat(filepath.Join(dir, "Docs", "link.txt"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
	assert.FileExists(t, target)
	assert.Equal(t, []string{"real.txt"}, testutils.ListFiles(t, outside))
}

func TestProcessAllContinuesAfterFailure(t *testing.T) {
	good := t.TempDir()
	testutils.CreateTestFilesWithContent(t, good, map[string]string{"a.txt": "a"})
	missing := testutils.SampleConfig(t, filepath.Join(t.TempDir(), "missing"))
	rec := &fakeRecorder{}

	results := newEngine(organize.WithRecorder(rec)).ProcessAll([]*types.Config{missing, testutils.SampleConfig(t, good)})
	require.Len(t, results, 2)
	assert.Equal(t, types.StatusFailure, results[0].Status)
	assert.Equal(t, types.StatusSuccess, results[1].Status)
	assert.FileExists(t, filepath.Join(good, "Docs", "a.txt"))
	assert.Len(t, rec.results, 2)
}

func TestCustomFilter(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithDefault(t, dir)
	var trace []string
	stop := errors.New("maintenance window")

	engine := newEngine(organize.WithFilters(recordingFilter{
		name: "maintenance", priority: organize.PriorityClassify - 5, trace: &trace, stop: stop,
	}))
	res := engine.Process(testutils.SampleConfig(t, dir))

	assert.Equal(t, "maintenance", res.Filter)
	assert.ErrorIs(t, res.Error, stop)
	assert.Equal(t, []string{"maintenance"}, trace)
	// Hidden routing ran before the custom filter, classification did not.
	assert.FileExists(t, filepath.Join(dir, types.HiddenName, ".secret"))
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestValidateDirectory(t *testing.T) {
	engine := newEngine()
	assert.NoError(t, engine.ValidateDirectory(t.TempDir()))
	assert.True(t, errors.IsDirectoryNotFound(engine.ValidateDirectory(filepath.Join(t.TempDir(), "nope"))))
	if runtime.GOOS != "windows" {
		assert.True(t, errors.IsCriticalDirectory(engine.ValidateDirectory("/usr/bin")))
	}
}

func TestPending(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"b.txt":        "b",
		"a.py":         "a",
		"skip.part":    "p",
		"sub/nested.x": "n",
	})
	cfg := testutils.SampleConfig(t, dir)
	cfg.Ignore = []string{"*.part"}
	engine := newEngine()

	pending, err := engine.Pending(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.txt"}, pending)

	require.NoError(t, engine.Process(cfg).Error)
	pending, err = engine.Pending(cfg)
	require.NoError(t, err)
	assert.Empty(t, pending)

	cfg.Active = false
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"c.txt": "c"})
	pending, err = engine.Pending(cfg)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
