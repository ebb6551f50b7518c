package scar

import (
	"errors"
	"strings"
)

// Error is the scar error domain type.
//
// Errors coming from scar components should be able to be inspected as
// ([errors.As]) an *Error at some point in the error chain.
//
// Components should create an Error at the system boundary (e.g. a short
// read, a malformed block, an unrecognized codec) and intermediate layers
// should not wrap in another Error except to add additional [ErrorKind]
// information. That is to say, use [fmt.Errorf] with a "%w" verb in
// preference to creating a containing Error.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrIO,
		ErrMalformed,
		ErrUnsupportedCompression,
		ErrInvalidArgument:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
//
// If an error is unsure which kind to use, ErrIO should be used.
type ErrorKind string

// Defined error kinds, per spec.md §7.
var (
	// ErrIO wraps any failure from the underlying sink or source.
	ErrIO = ErrorKind("io")
	// ErrMalformed covers bad magic, missing tail/end markers, invalid
	// checksums, unexpected EOF inside a header or pax record, oversized
	// pax/index entries, and missing required separators.
	ErrMalformed = ErrorKind("malformed archive")
	// ErrUnsupportedCompression is returned when no codec's eof_marker can
	// be recognized. A missing tail magic is reported as ErrMalformed.
	ErrUnsupportedCompression = ErrorKind("unsupported compression")
	// ErrInvalidArgument covers bad CLI/API input.
	ErrInvalidArgument = ErrorKind("invalid argument")
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}
