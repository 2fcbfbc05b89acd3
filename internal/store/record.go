package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catsort/pkg/types"
)

const (
	recordSuffix  = ".json"
	tempPattern   = ".record-*.tmp"
	maxStemLength = 64
)

// RecordFileName derives a stable, filesystem-safe file name for the record
// keyed by directory. The hash suffix keeps keys that sanitize to the same
// stem (e.g. "/a/b" and "/a_b") in separate files.
func RecordFileName(directory string) string {
	var b strings.Builder
	for _, r := range directory {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	stem := strings.Trim(b.String(), "_.")
	if len(stem) > maxStemLength {
		stem = stem[len(stem)-maxStemLength:]
	}
	if stem == "" {
		stem = "root"
	}
	sum := sha256.Sum256([]byte(directory))
	return stem + "-" + hex.EncodeToString(sum[:4]) + recordSuffix
}

// isRecordFile reports whether name is a committed record (not a temp file).
func isRecordFile(name string) bool {
	return strings.HasSuffix(name, recordSuffix) && !strings.HasPrefix(name, ".")
}

func encodeRecord(cfg *types.Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config %s: %w", cfg.Directory, err)
	}
	return append(data, '\n'), nil
}

func readRecord(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", path, err)
	}
	var cfg types.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", path, err)
	}
	return &cfg, nil
}

// writeFileAtomic replaces path with data: temp file in the same directory,
// fsync, rename. A crash at any point leaves either the old or the new
// content at path, never a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
