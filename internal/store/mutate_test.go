package store_test

import (
	"testing"

	"catsort/internal/errors"
	"catsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryEdits(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	key := "/data/inbox"
	require.NoError(t, s.Create(newConfig(t, key)))

	t.Run("add category", func(t *testing.T) {
		media, err := types.NewCategory("Media", false, ".jpg")
		require.NoError(t, err)
		cfg, err := s.AddCategory(key, media)
		require.NoError(t, err)
		assert.Len(t, cfg.Categories, 3)

		_, err = s.AddCategory(key, media)
		assert.True(t, errors.IsAlreadyExists(err))
	})

	t.Run("rename category", func(t *testing.T) {
		cfg, err := s.RenameCategory(key, "Media", "Pictures")
		require.NoError(t, err)
		_, ok := cfg.Category("Pictures")
		assert.True(t, ok)

		_, err = s.RenameCategory(key, "Missing", "X")
		assert.True(t, errors.IsNotFound(err))

		_, err = s.RenameCategory(key, "Pictures", "Docs")
		assert.True(t, errors.IsAlreadyExists(err))

		_, err = s.RenameCategory(key, "Pictures", "Uncategorized")
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("extensions", func(t *testing.T) {
		cfg, err := s.AddExtensions(key, "Pictures", "PNG", ".gif")
		require.NoError(t, err)
		pics, _ := cfg.Category("Pictures")
		assert.Equal(t, []string{".jpg", ".png", ".gif"}, pics.Extensions)

		_, err = s.AddExtensions(key, "Pictures", ".txt")
		assert.True(t, errors.IsInvalidConfig(err), "extension owned by Docs")
		assert.ErrorContains(t, err, "already belongs to category Docs")

		cfg, err = s.RemoveExtensions(key, "Pictures", ".png")
		require.NoError(t, err)
		pics, _ = cfg.Category("Pictures")
		assert.Equal(t, []string{".jpg", ".gif"}, pics.Extensions)

		_, err = s.RemoveExtensions(key, "Pictures", ".bmp")
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("toggle flag", func(t *testing.T) {
		cfg, err := s.ToggleCategorizeByExtension(key, "Pictures")
		require.NoError(t, err)
		pics, _ := cfg.Category("Pictures")
		assert.True(t, pics.CategorizeByExtension)
	})

	t.Run("remove category", func(t *testing.T) {
		cfg, err := s.RemoveCategory(key, "Pictures")
		require.NoError(t, err)
		assert.Len(t, cfg.Categories, 2)

		_, err = s.RemoveCategory(key, "Pictures")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("cannot remove the last category", func(t *testing.T) {
		_, err := s.RemoveCategory(key, "Code")
		require.NoError(t, err)
		_, err = s.RemoveCategory(key, "Docs")
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("edits survive a reload", func(t *testing.T) {
		reopened := openStore(t, dir)
		cfg, err := reopened.Get(key)
		require.NoError(t, err)
		require.Len(t, cfg.Categories, 1)
		assert.Equal(t, "Docs", cfg.Categories[0].Name)
	})
}

func TestScheduleAndActivityEdits(t *testing.T) {
	s := openStore(t, t.TempDir())
	key := "/data/inbox"
	require.NoError(t, s.Create(newConfig(t, key)))

	cfg, err := s.SetSchedule(key, types.Schedule{Type: "week", Interval: 2, Time: "07:30", Weekday: "sunday", Active: true})
	require.NoError(t, err)
	assert.Equal(t, types.Week, cfg.Schedule.Type)
	assert.Equal(t, "SUNDAY", cfg.Schedule.Weekday)

	_, err = s.SetSchedule(key, types.Schedule{Type: types.Month, Interval: 1, Time: "07:30"})
	assert.True(t, errors.IsInvalidConfig(err))

	cfg, err = s.SetActive(key, false)
	require.NoError(t, err)
	assert.False(t, cfg.Active)

	cfg, err = s.SetIgnore(key, []string{"*.part"})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.part"}, cfg.Ignore)

	moved, err := s.Move(key, "/data/other")
	require.NoError(t, err)
	assert.Equal(t, "/data/other", moved.Directory)
	assert.False(t, s.Exists(key))
	assert.True(t, s.Exists("/data/other"))
}
