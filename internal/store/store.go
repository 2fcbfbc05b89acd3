// Package store persists directory configurations, one JSON record per
// managed directory, and is the single source of truth for which
// directories catsort manages.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/pkg/types"
)

// Store is the CRUD contract the CLI, the daemon and the scheduler use.
type Store interface {
	List() []*types.Config
	Get(directory string) (*types.Config, error)
	Create(cfg *types.Config) error
	Update(directory string, cfg *types.Config) error
	Delete(directory string) error
}

type entry struct {
	cfg  *types.Config
	file string
}

// FileStore keeps one record file per directory under dir. All reads hand
// out copies; all writes go through validate, atomic write, then index.
type FileStore struct {
	dir     string
	logger  log.Logging
	mu      sync.RWMutex
	entries map[string]entry
}

var _ Store = (*FileStore)(nil)

// Open creates dir if needed and loads every record in it. Records that
// cannot be decoded or fail validation are logged and skipped; only an
// unreadable store directory is fatal.
func Open(dir string, logger log.Logging) (*FileStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewFileError("cannot create store directory", dir, errors.FilesystemError, err)
	}

	s := &FileStore{
		dir:     dir,
		logger:  logger.With(log.F("store", dir)),
		entries: make(map[string]entry),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every record from disk, picking up changes made by other
// processes. On failure the in-memory state is left as it was.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load must be called with mu held or before s is shared.
func (s *FileStore) load() error {
	entries, err := s.readAll()
	if err != nil {
		return err
	}
	s.entries = entries
	return nil
}

func (s *FileStore) readAll() (map[string]entry, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewFileError("cannot read store directory", s.dir, errors.FilesystemError, err)
	}
	entries := make(map[string]entry)

	for _, item := range items {
		if item.IsDir() || !isRecordFile(item.Name()) {
			continue
		}
		path := filepath.Join(s.dir, item.Name())
		logger := s.logger.With(log.F("record", item.Name()))

		cfg, err := readRecord(path)
		if err != nil {
			logger.With(log.F("error", err)).Warn("Skipping unreadable config record")
			continue
		}
		if err := cfg.Validate(); err != nil {
			logger.With(log.ErrorFields(err)...).Warn("Skipping invalid config record")
			continue
		}
		if prev, dup := entries[cfg.Directory]; dup {
			logger.With(log.F("directory", cfg.Directory), log.F("kept", prev.file)).
				Warn("Skipping duplicate config record")
			continue
		}
		entries[cfg.Directory] = entry{cfg: cfg, file: item.Name()}
	}

	s.logger.With(log.F("count", len(entries))).Debug("Loaded config records")
	return entries, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// List returns copies of every config, sorted by directory.
func (s *FileStore) List() []*types.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Config, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.cfg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Directory < out[j].Directory })
	return out
}

// Get returns a copy of the config for directory.
func (s *FileStore) Get(directory string) (*types.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[directory]
	if !ok {
		return nil, notFound(directory)
	}
	return e.cfg.Clone(), nil
}

// Exists reports whether directory has a config.
func (s *FileStore) Exists(directory string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[directory]
	return ok
}

// Create persists a new config. The directory key must be unused.
func (s *FileStore) Create(cfg *types.Config) error {
	if cfg == nil {
		return errors.InvalidConfigf("config", "nil config")
	}
	next := cfg.Clone()
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[next.Directory]; exists {
		return alreadyExists(next.Directory)
	}
	if err := s.write(next, RecordFileName(next.Directory)); err != nil {
		return err
	}
	s.logger.With(log.F("directory", next.Directory)).Info("Created config")
	return nil
}

// Update overwrites the config stored under directory. When cfg names a
// different directory the record is re-keyed; the new key must be unused.
func (s *FileStore) Update(directory string, cfg *types.Config) error {
	if cfg == nil {
		return errors.InvalidConfigf("config", "nil config")
	}
	next := cfg.Clone()
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(directory, next)
}

// Modify applies fn to a copy of the config for directory and persists the
// result as one read-modify-write unit. Nothing is written if fn fails or
// the result does not validate.
func (s *FileStore) Modify(directory string, fn func(cfg *types.Config) error) (*types.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[directory]
	if !ok {
		return nil, notFound(directory)
	}
	next := e.cfg.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := s.replace(directory, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// replace must be called with mu held and next already validated.
func (s *FileStore) replace(directory string, next *types.Config) error {
	old, ok := s.entries[directory]
	if !ok {
		return notFound(directory)
	}

	if next.Directory == directory {
		if err := s.write(next, old.file); err != nil {
			return err
		}
		s.logger.With(log.F("directory", directory)).Debug("Updated config")
		return nil
	}

	if _, taken := s.entries[next.Directory]; taken {
		return alreadyExists(next.Directory)
	}
	if err := s.write(next, RecordFileName(next.Directory)); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, old.file)); err != nil && !os.IsNotExist(err) {
		s.logger.With(log.F("record", old.file), log.F("error", err)).Warn("Failed to remove re-keyed config record")
	}
	delete(s.entries, directory)
	s.logger.With(log.F("from", directory), log.F("to", next.Directory)).Info("Moved config")
	return nil
}

// Delete removes the config and its record file.
func (s *FileStore) Delete(directory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[directory]
	if !ok {
		return notFound(directory)
	}
	path := filepath.Join(s.dir, e.file)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.FilesystemFailure("remove record", path, err)
	}
	delete(s.entries, directory)
	s.logger.With(log.F("directory", directory)).Info("Deleted config")
	return nil
}

// write must be called with mu held.
func (s *FileStore) write(cfg *types.Config, file string) error {
	data, err := encodeRecord(cfg)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, file)
	if err := writeFileAtomic(path, data); err != nil {
		return errors.NewFileError("cannot persist config", path, errors.FilesystemError, err)
	}
	s.entries[cfg.Directory] = entry{cfg: cfg, file: file}
	return nil
}

func notFound(directory string) error {
	return errors.NewConfigError("config not found", directory, errors.NotFound, nil)
}

func alreadyExists(directory string) error {
	return errors.NewConfigError("config already exists", directory, errors.AlreadyExists, nil)
}

// String implements fmt.Stringer for log output.
func (s *FileStore) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("FileStore(%s, %d configs)", s.dir, len(s.entries))
}
