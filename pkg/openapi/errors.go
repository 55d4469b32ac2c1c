package openapi

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is matched by every UnsupportedFormatError
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ParsingError reports a malformed input document. It is fatal.
type ParsingError struct {
	Path string
	Line int
	Err  error
}

func (e *ParsingError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s (line %d): %v", loc, e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", loc, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a file type or document version the
// loader does not handle.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unsupported input format: %s", e.Reason)
	}
	return fmt.Sprintf("unsupported input format for %s: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// SchemaDecodingError reports a single schema that could not be decoded.
// It is recoverable: the rest of the document is still usable.
type SchemaDecodingError struct {
	Location string
	Line     int
	Reason   string
}

func (e *SchemaDecodingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema %s (line %d): %s", e.Location, e.Line, e.Reason)
	}
	return fmt.Sprintf("schema %s: %s", e.Location, e.Reason)
}
