// Package errors provides structured error types for diagramkit.
//
// Two layers live here. The coded [Error] carries a machine-readable [Code]
// for the CLI and HTTP surfaces, exactly like any wrapped error. On top of it
// sits the conversion taxonomy returned by the core packages:
//
//   - [ParseError]: malformed importer input (syntax, unexpected token,
//     truncation, or a broken compressed payload)
//   - [ReferentialError]: an edge or node pointing at a node that does not
//     exist, or a cluster containment cycle
//   - [LayoutError]: invalid layout options or cyclic cluster containment
//   - [UnsupportedShapeKind]: a geometry request for a shape outside the
//     bindable set
//   - [ExportError]: a graph an exporter cannot represent
//
// Every taxonomy type implements error and reports its [Code], so callers
// can branch with errors.As on the concrete type or with [GetCode] on the
// category.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown format %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	var pe *errors.ParseError
//	if stderrors.As(err, &pe) && pe.Pos != nil {
//	    fmt.Printf("line %d col %d\n", pe.Pos.Line, pe.Pos.Col)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidOptions Code = "INVALID_OPTIONS"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Conversion errors
	ErrCodeParse            Code = "PARSE_ERROR"
	ErrCodeReference        Code = "REFERENCE_ERROR"
	ErrCodeLayout           Code = "LAYOUT_ERROR"
	ErrCodeExport           Code = "EXPORT_ERROR"
	ErrCodeUnsupportedShape Code = "UNSUPPORTED_SHAPE"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by every taxonomy type in this package.
type coder interface {
	error
	Code() Code
}

// Is reports whether err carries the given error code.
// It walks the error chain and matches both *Error values and taxonomy
// errors such as *ParseError.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// The outermost coded error in the chain wins. Returns an empty string if
// nothing in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
