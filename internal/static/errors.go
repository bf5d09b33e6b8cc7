package static

import (
	"errors"
	"fmt"
	"io/fs"

	"dirserve/internal/fsutil"
)

// Kind classifies a resolution failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDecode means the request path was not valid percent-encoded UTF-8.
	KindDecode
	// KindNotFound means the path does not exist.
	KindNotFound
	// KindIO means an existing path could not be read.
	KindIO
	// KindMetadata means the path could not be stat'd for a reason other
	// than absence.
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not found"
	case KindIO:
		return "io"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound = errors.New("not found")
	ErrIO       = errors.New("i/o error")
	ErrMetadata = errors.New("metadata error")
)

// Error is returned by every resolution operation.
type Error struct {
	Kind Kind
	// Path is the sanitized display path, or the raw request path for
	// decode failures.
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind, so errors.Is(err, ErrNotFound) works
// whatever the underlying cause.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrIO:
		return e.Kind == KindIO
	case ErrMetadata:
		return e.Kind == KindMetadata
	case fsutil.ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, fsutil.ErrDecode) {
		return KindDecode
	}
	return KindUnknown
}

// NewError builds an *Error for path. A *fs.PathError cause is reduced to
// its inner error so the absolute filesystem path stays out of Error().
func NewError(kind Kind, path string, err error) *Error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

func newError(kind Kind, path string, err error) *Error {
	return NewError(kind, path, err)
}
