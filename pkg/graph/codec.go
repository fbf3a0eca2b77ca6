package graph

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

// =============================================================================
// JSON Serialization API
// =============================================================================

// MarshalGraph converts a Graph to indented JSON bytes.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph decodes JSON bytes and validates the result.
// Malformed JSON is reported as *errors.ParseError with the byte offset.
func UnmarshalGraph(data []byte) (Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// WriteGraph writes a Graph as JSON to an io.Writer.
func WriteGraph(g Graph, w io.Writer) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a JSON graph from an io.Reader and validates it.
func ReadGraph(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, jsonParseError(err)
	}
	if err := Validate(g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraphFile reads a JSON file and returns the decoded Graph.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

func jsonParseError(err error) error {
	var syn *json.SyntaxError
	if stderrors.As(err, &syn) {
		return &errors.ParseError{
			Kind:   errors.Syntax,
			Format: "json",
			Pos:    &errors.Position{Offset: int(syn.Offset)},
			Msg:    syn.Error(),
		}
	}
	var typ *json.UnmarshalTypeError
	if stderrors.As(err, &typ) {
		return &errors.ParseError{
			Kind:   errors.UnexpectedToken,
			Format: "json",
			Pos:    &errors.Position{Offset: int(typ.Offset)},
			Msg:    typ.Error(),
		}
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return &errors.ParseError{Kind: errors.Truncated, Format: "json", Msg: "unexpected end of input"}
	}
	return &errors.ParseError{Kind: errors.Syntax, Format: "json", Cause: err}
}

// =============================================================================
// Binary Serialization API
// =============================================================================

// MarshalBinary encodes a Graph as msgpack. Field names follow the JSON
// tags so both encodings describe the same document.
func MarshalBinary(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	if err := enc.Encode(g); err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a msgpack Graph produced by MarshalBinary.
// The result is not validated; binary payloads come from trusted caches.
func UnmarshalBinary(data []byte) (Graph, error) {
	var g Graph
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode msgpack: %w", err)
	}
	return g, nil
}
