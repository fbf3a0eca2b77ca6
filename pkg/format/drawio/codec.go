package drawio

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/url"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/matzehuels/diagramkit/pkg/errors"
)

// Decompress decodes a compressed diagram body: base64, then raw deflate,
// then URL unescaping. Failures are *errors.ParseError of kind Compression.
func Decompress(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", compressionError("base64", err)
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	inflated, err := io.ReadAll(r)
	if err != nil {
		return "", compressionError("inflate", err)
	}

	out, err := url.PathUnescape(string(inflated))
	if err != nil {
		return "", compressionError("unescape", err)
	}
	return out, nil
}

// Compress is the inverse of Decompress.
func Compress(s string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, escapeComponent(s)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func compressionError(stage string, err error) error {
	return &errors.ParseError{
		Kind:   errors.Compression,
		Format: formatName,
		Msg:    stage + " failed",
		Cause:  err,
	}
}

// escapeComponent percent-encodes s the way browsers' encodeURIComponent
// does, which is what drawio expects inside compressed diagrams.
func escapeComponent(s string) string {
	const unreserved = "-_.!~*'()"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			strings.IndexByte(unreserved, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte("0123456789ABCDEF"[c>>4])
			b.WriteByte("0123456789ABCDEF"[c&15])
		}
	}
	return b.String()
}
