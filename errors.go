package ascii2nc

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrInvalidGrid    = errors.New("invalid grid")
	ErrIO             = errors.New("i/o failure")
	ErrConfig         = errors.New("invalid configuration")
)

// Error records the failure kind, the file or URL involved (if any) and the
// underlying cause.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func malformedf(path, format string, args ...any) error {
	return &Error{Kind: ErrMalformedInput, Path: path, Err: fmt.Errorf(format, args...)}
}

func invalidGridf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidGrid, Err: fmt.Errorf(format, args...)}
}

func ioError(path string, err error) error {
	return &Error{Kind: ErrIO, Path: path, Err: err}
}

// withPath fills in the path of an *Error that was raised without one.
func withPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}
