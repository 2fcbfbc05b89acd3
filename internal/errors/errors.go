// Package errors provides standardized error handling for catsort.
// It defines the error kinds surfaced by the organizer, the configuration
// store and the filesystem layer, plus helpers for creating, wrapping and
// classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// Directory guard kinds
	DirectoryNotFound
	CriticalDirectory
	InsufficientPermissions
	// Configuration kinds
	InvalidConfig
	AlreadyExists
	NotFound
	// Filesystem mutation failures
	FilesystemError
)

var kindNames = map[ErrorKind]string{
	Unknown:                 "Unknown",
	DirectoryNotFound:       "DirectoryNotFound",
	CriticalDirectory:       "CriticalDirectory",
	InsufficientPermissions: "InsufficientPermissions",
	InvalidConfig:           "InvalidConfig",
	AlreadyExists:           "AlreadyExists",
	NotFound:                "NotFound",
	FilesystemError:         "FilesystemError",
}

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors tied to a path on disk: guard failures on the
// target directory and failed move/mkdir/rmdir calls.
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to directory configurations and the
// store that holds them. param names the offending field or directory key.
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// InvalidConfigf creates an InvalidConfig error for the named field.
func InvalidConfigf(param string, format string, args ...interface{}) *ConfigError {
	return NewConfigError(fmt.Sprintf(format, args...), param, InvalidConfig, nil)
}

// FilesystemFailure wraps a failed filesystem call on path.
func FilesystemFailure(op string, path string, err error) *FileError {
	return NewFileError(op+" failed", path, FilesystemError, err)
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the outermost kinded error in err's chain, or
// Unknown when there is none.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsDirectoryNotFound checks if the error is a missing target directory error
func IsDirectoryNotFound(err error) bool { return IsKind(err, DirectoryNotFound) }

// IsCriticalDirectory checks if the error is a critical directory rejection
func IsCriticalDirectory(err error) bool { return IsKind(err, CriticalDirectory) }

// IsInsufficientPermissions checks if the error is a permission error
func IsInsufficientPermissions(err error) bool { return IsKind(err, InsufficientPermissions) }

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool { return IsKind(err, InvalidConfig) }

// IsAlreadyExists checks if the error is a duplicate store key error
func IsAlreadyExists(err error) bool { return IsKind(err, AlreadyExists) }

// IsNotFound checks if the error is a missing store key error
func IsNotFound(err error) bool { return IsKind(err, NotFound) }

// IsFilesystemError checks if the error is a failed filesystem mutation
func IsFilesystemError(err error) bool { return IsKind(err, FilesystemError) }
