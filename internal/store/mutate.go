package store

import (
	"catsort/internal/errors"
	"catsort/pkg/types"
)

// Edit helpers used by the CLI. Each one is a single Modify call, so the
// change is validated and persisted before it returns.

func categoryNotFound(name string) error {
	return errors.NewConfigError("category not found", name, errors.NotFound, nil)
}

// AddCategory appends a new category.
func (s *FileStore) AddCategory(directory string, cat types.Category) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		if _, exists := cfg.Category(cat.Name); exists {
			return errors.NewConfigError("category already exists", cat.Name, errors.AlreadyExists, nil)
		}
		cfg.Categories = append(cfg.Categories, cat.Clone())
		return nil
	})
}

// RenameCategory changes a category's name, keeping its position and rules.
func (s *FileStore) RenameCategory(directory, oldName, newName string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cat, ok := cfg.Category(oldName)
		if !ok {
			return categoryNotFound(oldName)
		}
		if _, taken := cfg.Category(newName); taken && newName != oldName {
			return errors.NewConfigError("category already exists", newName, errors.AlreadyExists, nil)
		}
		cat.Name = newName
		return nil
	})
}

// RemoveCategory deletes a category. The last category cannot be removed
// because a config needs at least one.
func (s *FileStore) RemoveCategory(directory, name string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		for i := range cfg.Categories {
			if cfg.Categories[i].Name == name {
				cfg.Categories = append(cfg.Categories[:i], cfg.Categories[i+1:]...)
				return nil
			}
		}
		return categoryNotFound(name)
	})
}

// AddExtensions adds extensions to a category. An extension already owned
// by another category is rejected, naming the owner.
func (s *FileStore) AddExtensions(directory, name string, extensions ...string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cat, ok := cfg.Category(name)
		if !ok {
			return categoryNotFound(name)
		}
		for _, ext := range extensions {
			if owner, taken := cfg.ExtensionOwner(ext); taken && owner.Name != name {
				return errors.InvalidConfigf("extensions", "%s already belongs to category %s", ext, owner.Name)
			}
		}
		return cat.AddExtensions(extensions...)
	})
}

// RemoveExtensions removes extensions from a category.
func (s *FileStore) RemoveExtensions(directory, name string, extensions ...string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cat, ok := cfg.Category(name)
		if !ok {
			return categoryNotFound(name)
		}
		return cat.RemoveExtensions(extensions...)
	})
}

// ToggleCategorizeByExtension flips the sub-bucketing flag of a category.
func (s *FileStore) ToggleCategorizeByExtension(directory, name string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cat, ok := cfg.Category(name)
		if !ok {
			return categoryNotFound(name)
		}
		cat.CategorizeByExtension = !cat.CategorizeByExtension
		return nil
	})
}

// SetSchedule replaces the schedule.
func (s *FileStore) SetSchedule(directory string, schedule types.Schedule) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cfg.Schedule = schedule
		return nil
	})
}

// SetActive enables or disables processing of the directory.
func (s *FileStore) SetActive(directory string, active bool) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cfg.Active = active
		return nil
	})
}

// SetIgnore replaces the ignore globs.
func (s *FileStore) SetIgnore(directory string, patterns []string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cfg.Ignore = append([]string(nil), patterns...)
		return nil
	})
}

// Move re-keys a config to a new directory.
func (s *FileStore) Move(directory, newDirectory string) (*types.Config, error) {
	return s.Modify(directory, func(cfg *types.Config) error {
		cfg.Directory = newDirectory
		return nil
	})
}
