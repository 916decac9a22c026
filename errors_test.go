package ascii2nc

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: ErrIO, Path: "a.xy", Err: fs.ErrPermission}, "i/o failure: a.xy: permission denied"},
		{&Error{Kind: ErrMalformedInput, Path: "a.xy"}, "malformed input: a.xy"},
		{&Error{Kind: ErrInvalidGrid, Err: errors.New("too small")}, "invalid grid: too small"},
		{&Error{Kind: ErrConfig}, "invalid configuration"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := ioError("out.nc", fs.ErrPermission)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrMalformedInput))

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, "out.nc", e.Path)
}

func TestWithPath(t *testing.T) {
	err := withPath(invalidGridf("bad"), "in.xy")
	assert.Equal(t, "invalid grid: in.xy: bad", err.Error())

	// An existing path is kept.
	err = withPath(malformedf("http://host/x", "too big"), "in.xy")
	assert.Equal(t, "malformed input: http://host/x: too big", err.Error())

	plain := errors.New("plain")
	assert.Equal(t, plain, withPath(plain, "in.xy"))
}
