// Package history keeps a log of engine runs in a SQLite database so the
// CLI can show what the daemon did while nobody was watching.
package history

import (
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"time"

	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/pkg/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed db/schema.sql
var dbFS embed.FS

// Fixed-width UTC timestamps sort lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one stored engine result.
type Run struct {
	ID         string
	Operation  string
	Directory  string
	Status     types.Status
	Filter     string
	Error      string
	FilesMoved int
	BytesMoved int64
	Started    time.Time
	Duration   time.Duration
}

// DB is a run log backed by SQLite. It implements organize.Recorder.
type DB struct {
	db     *sql.DB
	logger log.Logging
}

// Open opens or creates the database at path. An empty path gives an
// in-memory database, handy in tests.
func Open(path string, logger log.Logging) (*DB, error) {
	if logger == nil {
		logger = log.Default()
	}
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.FilesystemFailure("create history directory", filepath.Dir(path), err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.NewFileError("failed to open history database", path, errors.FilesystemError, err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	schema, err := dbFS.ReadFile("db/schema.sql")
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, errors.NewFileError("failed to initialize history schema", path, errors.FilesystemError, err)
	}

	return &DB{db: db, logger: logger.With(log.F("component", "history"))}, nil
}

// Close closes the database connection
func (h *DB) Close() error {
	return h.db.Close()
}

// ObserveRun stores res. Failures are logged; a broken history never fails
// a run.
func (h *DB) ObserveRun(operation string, res types.OrganizeResult) {
	if err := h.Save(operation, res); err != nil {
		h.logger.With(append([]log.Field{log.F("directory", res.Directory)}, log.ErrorFields(err)...)...).
			Warn("Failed to record run")
	}
}

// Save stores one engine result.
func (h *DB) Save(operation string, res types.OrganizeResult) error {
	id := res.RunID
	if id == "" {
		id = uuid.NewString()
	}
	started := res.Started
	if started.IsZero() {
		started = time.Now()
	}
	var msg string
	if res.Error != nil {
		msg = res.Error.Error()
	}

	_, err := h.db.Exec(`
		INSERT INTO runs (
			id, started, operation, directory, status,
			filter, error, files_moved, bytes_moved, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		started.UTC().Format(timeLayout),
		operation,
		res.Directory,
		string(res.Status),
		res.Filter,
		msg,
		res.FilesMoved,
		res.BytesMoved,
		int64(res.Duration),
	)
	if err != nil {
		return errors.NewFileError("failed to save run", res.Directory, errors.FilesystemError, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. An empty directory means
// every directory.
func (h *DB) Recent(directory string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, started, operation, directory, status,
		       filter, error, files_moved, bytes_moved, duration_ns
		FROM runs`
	args := []interface{}{}
	if directory != "" {
		query += ` WHERE directory = ?`
		args = append(args, directory)
	}
	query += ` ORDER BY started DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			status   string
			duration int64
		)
		if err := rows.Scan(&r.ID, &started, &r.Operation, &r.Directory, &status,
			&r.Filter, &r.Error, &r.FilesMoved, &r.BytesMoved, &duration); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		r.Status = types.Status(status)
		r.Duration = time.Duration(duration)
		if r.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, errors.Wrapf(err, "bad timestamp %q in run %s", started, r.ID)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune deletes runs that started before cutoff and reports how many went.
func (h *DB) Prune(cutoff time.Time) (int64, error) {
	res, err := h.db.Exec(`DELETE FROM runs WHERE started < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune runs")
	}
	return res.RowsAffected()
}
