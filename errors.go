package sendfile

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"syscall"
)

var (
	// ErrBadRequest is returned when the request path cannot be decoded
	ErrBadRequest = errors.New("bad request")
	// ErrForbidden is returned for traversal attempts, denied dotfiles and directory listings
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when no servable file exists for the path
	ErrNotFound = errors.New("not found")
	// ErrPreconditionFailed is returned when If-Match or If-Unmodified-Since fail
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrRangeNotSatisfiable is returned when no requested range overlaps the entity
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidOption is returned when an option value has the wrong type or value
	ErrInvalidOption = errors.New("invalid option")
	// ErrNoFileSystem is returned by New when no filesystem capability is supplied
	ErrNoFileSystem = errors.New("filesystem capability is required")
)

// Error is a terminal outcome of the send pipeline. Kind is one of the
// sentinel errors above and Cause is the underlying failure, if any.
type Error struct {
	Status int
	Kind   error
	Cause  error

	// Header holds fields that belong on the error response, such as
	// Content-Range on a 416.
	Header http.Header

	// HeadersSent is true when the failure happened after the status line
	// was committed. The response can then only be truncated.
	HeadersSent bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(status int, kind, cause error) *Error {
	return &Error{Status: status, Kind: kind, Cause: cause}
}

// ConfigError reports an option value that cannot be used.
type ConfigError struct {
	Option string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s option %s (got %T %v)", e.Option, e.Reason, e.Value, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidOption
}

// statError maps a stat or open failure to its response status. Missing
// entries and malformed names are 404, everything else is 500.
func statError(err error) *Error {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOENT),
		errors.Is(err, syscall.ENAMETOOLONG),
		errors.Is(err, syscall.ENOTDIR):
		return newError(http.StatusNotFound, ErrNotFound, err)
	default:
		return newError(http.StatusInternalServerError, ErrInternal, err)
	}
}

// AsError converts any error into an *Error. Configuration errors are
// classified as internal errors.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(http.StatusInternalServerError, ErrInternal, err)
}
