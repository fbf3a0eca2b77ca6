package drawio

import (
	"slices"
	"strconv"
	"strings"
)

// Style is a parsed mxGraph style string.
type Style map[string]string

// shapeTokens are the bare style tokens drawio writes without a value.
var shapeTokens = map[string]bool{
	"ellipse":       true,
	"doubleEllipse": true,
	"rhombus":       true,
	"triangle":      true,
	"hexagon":       true,
	"cylinder":      true,
	"cloud":         true,
	"text":          true,
	"label":         true,
	"image":         true,
	"group":         true,
	"swimlane":      true,
	"line":          true,
}

// ParseStyle parses "key=value;key2=value2;token;" into a Style. Empty
// entries are skipped, a bare token maps to "1", and the last duplicate
// key wins. Values may contain '='; only the first one splits.
func ParseStyle(s string) Style {
	st := Style{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			st[part] = "1"
			continue
		}
		st[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return st
}

// Has reports whether key is set.
func (s Style) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Value returns the value of key, or "" when unset.
func (s Style) Value(key string) string { return s[key] }

// Bool reports whether key is set to a truthy value ("1" or "true").
func (s Style) Bool(key string) bool {
	v := s[key]
	return v == "1" || strings.EqualFold(v, "true")
}

// Float returns the numeric value of key.
func (s Style) Float(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// Shape returns the shape name of the style: the "shape" key if present,
// otherwise the first bare shape token.
func (s Style) Shape() string {
	if v := s["shape"]; v != "" {
		return v
	}
	for _, tok := range s.tokens() {
		if tok != "group" && tok != "swimlane" {
			return tok
		}
	}
	return ""
}

func (s Style) tokens() []string {
	var out []string
	for k, v := range s {
		if shapeTokens[k] && v == "1" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// FormatStyle writes a style string with bare shape tokens first and the
// remaining keys in sorted order.
func FormatStyle(s Style) string {
	var b strings.Builder
	tokens := s.tokens()
	for _, tok := range tokens {
		b.WriteString(tok)
		b.WriteByte(';')
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		if !slices.Contains(tokens, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s[k])
		b.WriteByte(';')
	}
	return b.String()
}
