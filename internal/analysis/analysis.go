// Package analysis looks inside the files waiting in a directory root. It
// never moves anything; routing stays extension based. The CLI uses it to
// show what a run would do and to point out unmatched files whose content
// belongs to a category.
package analysis

import (
	"os"
	"path/filepath"
	"strings"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/internal/organize"
	"catsort/pkg/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

// Entry describes one root file a run would move.
type Entry struct {
	Name        string            // Base name in the root
	Size        int64             // Bytes, zero for links
	ContentType string            // Detected from content, not the name
	Destination string            // Routing target, relative to the root
	Suggested   string            // Category the content points to, when it differs
	Metadata    map[string]string // Extra fields from type-specific analyzers
}

// Analyzer adds type-specific details to an entry.
type Analyzer interface {
	// CanHandle checks if this analyzer is suitable for the given content type
	CanHandle(contentType string) bool
	// Analyze reads the file at path and fills in entry.Metadata
	Analyze(path string, entry *Entry) error
}

// ImageAnalyzer reads EXIF capture date and camera model.
type ImageAnalyzer struct {
	logger log.Logging
}

func (a *ImageAnalyzer) CanHandle(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/tiff"
}

func (a *ImageAnalyzer) Analyze(path string, entry *Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.FilesystemFailure("open", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		a.logger.Debugf("No EXIF data in %s: %v", path, err)
		return nil
	}
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if v, _ := tag.StringVal(); v != "" {
			entry.Metadata["taken"] = v
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, _ := tag.StringVal(); v != "" {
			entry.Metadata["camera"] = strings.TrimSpace(v)
		}
	}
	return nil
}

// Inspector runs content detection and the registered analyzers.
type Inspector struct {
	logger    log.Logging
	analyzers []Analyzer
}

// New creates an Inspector with the image analyzer registered.
func New(logger log.Logging) *Inspector {
	if logger == nil {
		logger = log.Default()
	}
	exif.RegisterParsers(mknote.All...)
	logger = logger.With(log.F("component", "analysis"))
	return &Inspector{
		logger:    logger,
		analyzers: []Analyzer{&ImageAnalyzer{logger: logger}},
	}
}

// Inspect describes each named root entry of cfg's directory, in order.
// Entries that vanished since they were listed are skipped.
func (in *Inspector) Inspect(cfg *types.Config, names []string) ([]Entry, error) {
	root, err := cfg.Path()
	if err != nil {
		return nil, errors.NewFileError("cannot resolve directory", cfg.Directory, errors.DirectoryNotFound, err)
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entry, err := in.Scan(filepath.Join(root, name))
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		entry.Destination = organize.Destination(cfg, name)
		entry.Suggested = suggest(cfg, entry)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Scan detects the content type of the file at path and runs every
// analyzer that handles it. Links are reported without being followed.
func (in *Inspector) Scan(path string) (Entry, error) {
	entry := Entry{Name: filepath.Base(path), Metadata: make(map[string]string)}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entry, errors.NewFileError("file vanished", path, errors.NotFound, err)
		}
		return entry, errors.FilesystemFailure("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		entry.ContentType = "inode/x-special"
		if info.Mode()&os.ModeSymlink != 0 {
			entry.ContentType = "inode/symlink"
		}
		return entry, nil
	}
	entry.Size = info.Size()

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return entry, errors.FilesystemFailure("read", path, err)
	}
	entry.ContentType = mtype.String()

	for _, a := range in.analyzers {
		if !a.CanHandle(mtype.String()) {
			continue
		}
		if err := a.Analyze(path, &entry); err != nil {
			in.logger.With(log.ErrorFields(err)...).Warn("Analyzer failed")
		}
	}
	return entry, nil
}

// suggest names the category an Uncategorized file's content would route
// to, or "" when there is none.
func suggest(cfg *types.Config, entry Entry) string {
	if entry.Destination != types.UncategorizedName || entry.ContentType == "" {
		return ""
	}
	mtype := mimetype.Lookup(strings.TrimSpace(strings.Split(entry.ContentType, ";")[0]))
	if mtype == nil || mtype.Extension() == "" {
		return ""
	}
	if dest := organize.Destination(cfg, "file"+mtype.Extension()); dest != types.UncategorizedName {
		return dest
	}
	return ""
}
