package errors

import (
	"fmt"
	"strings"
)

// =============================================================================
// Parse Errors
// =============================================================================

// ParseErrorKind classifies importer failures.
type ParseErrorKind int

const (
	// Syntax is malformed input that no token stream can explain
	// (invalid JSON, invalid XML, an unknown character).
	Syntax ParseErrorKind = iota
	// UnexpectedToken is a well-formed token in the wrong place.
	UnexpectedToken
	// Truncated is input that ends before a construct is closed.
	Truncated
	// Compression is a payload that fails to decode before any structure
	// is parsed (bad base64, bad deflate stream, bad URL escaping).
	Compression
)

// String returns the kind name.
func (k ParseErrorKind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case UnexpectedToken:
		return "unexpected token"
	case Truncated:
		return "truncated"
	case Compression:
		return "compression"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

// Position locates a parse failure. Line and Col are 1-based; Offset is
// a 0-based byte offset and is only set by byte-oriented decoders.
type Position struct {
	Line   int
	Col    int
	Offset int
}

// String formats the position as "line:col", or "offset N" when no line
// information is available.
func (p Position) String() string {
	if p.Line == 0 {
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// ParseError is returned by importers for malformed input. Importers never
// return a partial graph alongside a ParseError.
type ParseError struct {
	Kind   ParseErrorKind
	Format string    // Importer that failed ("dot", "drawio", ...)
	Pos    *Position // Optional
	Msg    string
	Cause  error
}

// NewParseError creates a ParseError without position information.
func NewParseError(format string, kind ParseErrorKind, msg string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Format: format, Msg: fmt.Sprintf(msg, args...)}
}

// ParseErrorAt creates a ParseError at the given line and column.
func ParseErrorAt(format string, kind ParseErrorKind, line, col int, msg string, args ...any) *ParseError {
	return &ParseError{
		Kind:   kind,
		Format: format,
		Pos:    &Position{Line: line, Col: col},
		Msg:    fmt.Sprintf(msg, args...),
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Format != "" {
		b.WriteString(e.Format)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Pos != nil {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *ParseError) Code() Code { return ErrCodeParse }

// =============================================================================
// Referential Errors
// =============================================================================

// ReferentialError reports a dangling or cyclic reference inside a graph.
//
// EdgeID is set when an edge endpoint is missing. NodeID is set when a
// node's parent is missing or when the parent chain starting at NodeID
// loops back on itself (Cycle is true). Duplicate node ids are reported
// with NodeID and MissingNodeID both set to the duplicated id.
type ReferentialError struct {
	EdgeID        string
	NodeID        string
	MissingNodeID string
	Cycle         bool
	Duplicate     bool
}

// Error implements the error interface.
func (e *ReferentialError) Error() string {
	switch {
	case e.Cycle:
		return fmt.Sprintf("cluster containment cycle through node %q", e.NodeID)
	case e.Duplicate:
		return fmt.Sprintf("duplicate node id %q", e.NodeID)
	case e.EdgeID != "":
		return fmt.Sprintf("edge %q references missing node %q", e.EdgeID, e.MissingNodeID)
	default:
		return fmt.Sprintf("node %q references missing parent %q", e.NodeID, e.MissingNodeID)
	}
}

// Code returns the error code for this error type.
func (e *ReferentialError) Code() Code { return ErrCodeReference }

// =============================================================================
// Layout Errors
// =============================================================================

// LayoutErrorReason classifies layout failures.
type LayoutErrorReason int

const (
	// InvalidOptions means the layout options failed validation.
	InvalidOptions LayoutErrorReason = iota
	// CyclicClusterContainment means the cluster parent relation is not a forest.
	CyclicClusterContainment
)

// String returns the reason name.
func (r LayoutErrorReason) String() string {
	switch r {
	case InvalidOptions:
		return "invalid options"
	case CyclicClusterContainment:
		return "cyclic cluster containment"
	default:
		return fmt.Sprintf("LayoutErrorReason(%d)", int(r))
	}
}

// LayoutError aborts a layout. No partial coordinates accompany it.
type LayoutError struct {
	Reason LayoutErrorReason
	Msg    string
	Cause  error
}

// NewLayoutError creates a LayoutError with a formatted message.
func NewLayoutError(reason LayoutErrorReason, msg string, args ...any) *LayoutError {
	return &LayoutError{Reason: reason, Msg: fmt.Sprintf(msg, args...)}
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	s := "layout: " + e.Reason.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *LayoutError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *LayoutError) Code() Code {
	if e.Reason == InvalidOptions {
		return ErrCodeInvalidOptions
	}
	return ErrCodeLayout
}

// =============================================================================
// Geometry and Export Errors
// =============================================================================

// UnsupportedShapeKind is returned by the geometry package for shapes it
// cannot bind to.
type UnsupportedShapeKind struct {
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedShapeKind) Error() string {
	return fmt.Sprintf("unsupported shape kind %q", e.Kind)
}

// Code returns the error code for this error type.
func (e *UnsupportedShapeKind) Code() Code { return ErrCodeUnsupportedShape }

// ExportError reports a graph that an exporter cannot represent.
type ExportError struct {
	Format string
	Reason string
	Cause  error
}

// NewExportError creates an ExportError with a formatted reason.
func NewExportError(format, reason string, args ...any) *ExportError {
	return &ExportError{Format: format, Reason: fmt.Sprintf(reason, args...)}
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	s := "export"
	if e.Format != "" {
		s += " " + e.Format
	}
	s += ": " + e.Reason
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *ExportError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *ExportError) Code() Code { return ErrCodeExport }
