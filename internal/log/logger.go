package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"catsort/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logging is the diagnostic sink handed to the engine, the store, the
// scheduler and the watcher.
type Logging interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	With(fields ...Field) Logging
	WithContext(ctx context.Context) Logging
}

// Logger is the logrus-backed implementation of Logging.
type Logger struct {
	entry *logrus.Entry
	level logrus.Level
	file  *os.File
}

type options struct {
	out   io.Writer
	json  bool
	file  string
	level logrus.Level
}

// Option configures a Logger.
type Option func(*options)

// WithOutput sends log lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile tees log lines into the file at path (appending).
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel sets the minimum level by name ("debug", "info", "warn", "error").
// Unknown names keep the default info level.
func WithLevel(name string) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(name); err == nil {
			o.level = lvl
		}
	}
}

// NewLogger creates a Logger writing text lines to stdout at info level
// unless options say otherwise.
func NewLogger(opts ...Option) *Logger {
	o := &options{out: os.Stdout, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(o)
	}

	base := logrus.New()
	// Level filtering happens in emit so SetDebug can lift it at runtime.
	base.SetLevel(logrus.TraceLevel)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l := &Logger{level: o.level}
	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(o.out, "log: cannot open %s: %v\n", o.file, err)
		} else {
			l.file = f
			out = io.MultiWriter(o.out, f)
		}
	}
	base.SetOutput(out)
	l.entry = logrus.NewEntry(base)
	return l
}

// Close releases the log file opened by WithFile, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) enabled(lvl logrus.Level) bool {
	if lvl == logrus.DebugLevel && isDebug.Load() {
		return true
	}
	return lvl <= l.level
}

func (l *Logger) emit(lvl logrus.Level, msg string) {
	if !l.enabled(lvl) {
		return
	}
	l.entry.Log(lvl, msg)
}

func (l *Logger) Debug(msg string) { l.emit(logrus.DebugLevel, msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.enabled(logrus.DebugLevel) {
		l.emit(logrus.DebugLevel, fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Info(msg string) { l.emit(logrus.InfoLevel, msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.emit(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string) { l.emit(logrus.WarnLevel, msg) }

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.emit(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string) { l.emit(logrus.ErrorLevel, msg) }

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.emit(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) Logging {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), level: l.level, file: l.file}
}

// WithContext attaches ctx to the entry. A nil ctx is ignored.
func (l *Logger) WithContext(ctx context.Context) Logging {
	if ctx == nil {
		return l
	}
	return &Logger{entry: l.entry.WithContext(ctx), level: l.level, file: l.file}
}

var _ Logging = (*Logger)(nil)

// SetDebug enables debug output on every logger regardless of its level.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Default returns the package-level logger.
func Default() Logging {
	return logger
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() Logging {
	return NewLogger(WithOutput(io.Discard))
}

// ErrorFields describes err as structured fields: the message, its kind and
// the path or parameter carried by catsort error types.
func ErrorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", int(errors.KindOf(err))),
	}
	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	return fields
}

// LogWithError returns the package-level logger annotated with err.
func LogWithError(err error) Logging {
	return logger.With(ErrorFields(err)...)
}

// LogError logs msg at error level with err attached.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}
