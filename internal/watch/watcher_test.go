package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"catsort/internal/log"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan FileModification, match func(FileModification) bool) FileModification {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event channel closed unexpectedly")
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timeout waiting for event")
			return FileModification{}
		}
	}
}

func TestWatcherFsnotify(t *testing.T) {
	tempDir := t.TempDir()

	w, err := NewWatcher(log.Discard())
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tempDir))
	require.NoError(t, w.AddDirectory(tempDir), "adding twice is a no-op")
	assert.Equal(t, []string{filepath.Clean(tempDir)}, w.GetDirectories())

	require.NoError(t, w.Start())
	assert.Error(t, w.Start(), "second start must fail")
	defer w.Stop()
	evChan := w.FileChannel()

	// Directories created in the root are not reported.
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "Docs"), 0755))

	testFilePath := filepath.Join(tempDir, "testfile.txt")
	f, err := os.Create(testFilePath)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ev := waitFor(t, evChan, func(ev FileModification) bool { return true })
	assert.Equal(t, testFilePath, ev.Path)
	assert.Equal(t, filepath.Clean(tempDir), ev.Dir)
	assert.True(t, ev.Op.Has(fsnotify.Create))
	require.NotNil(t, ev.Info)
	assert.Equal(t, "testfile.txt", ev.Info.Name())

	require.NoError(t, os.WriteFile(testFilePath, []byte("hello world"), 0644))
	waitFor(t, evChan, func(ev FileModification) bool {
		return ev.Path == testFilePath && ev.Op.Has(fsnotify.Write)
	})

	w.Stop()
	assert.False(t, w.IsRunning())
	for range evChan {
		// drain until closed
	}
}

func TestWatcherRejectsMissingDirectory(t *testing.T) {
	w, err := NewWatcher(log.Discard())
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.AddDirectory(filepath.Join(t.TempDir(), "missing")))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, w.AddDirectory(file))

	dir := t.TempDir()
	require.NoError(t, w.AddDirectory(dir))
	w.RemoveDirectory(dir)
	assert.Empty(t, w.GetDirectories())
}
