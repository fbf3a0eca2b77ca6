// Package cache stores intermediate pipeline results so that repeated
// conversions of the same diagram skip the layout stage.
//
// Three backends share the [Cache] interface: [NullCache] for disabled
// caching, [FileCache] for CLI use and [RedisCache] for the HTTP service.
// Keys are produced by a [Keyer] from content hashes and options, so any
// change to either yields a fresh entry.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached entries.
const (
	TTLLayout  = 7 * 24 * time.Hour
	TTLConvert = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies a laid-out graph by the hash of the imported
	// graph and the layout options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ConvertKey identifies a converted document by the hash of the input
	// bytes and the conversion options.
	ConvertKey(dataHash string, opts ConvertKeyOpts) string
}

// LayoutKeyOpts are the inputs that change a layout result.
type LayoutKeyOpts struct {
	Engine    string `json:"engine"`
	Direction string `json:"direction"`

	// Options is the complete option set, hashed as JSON.
	Options any `json:"options,omitempty"`
}

// ConvertKeyOpts are the inputs that change a conversion result.
type ConvertKeyOpts struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Layout   bool   `json:"layout"`
	Compress bool   `json:"compress"`

	// LayoutOptions is only meaningful when Layout is set.
	LayoutOptions any `json:"layout_options,omitempty"`
}

// DefaultKeyer produces unscoped keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ConvertKey(dataHash string, opts ConvertKeyOpts) string {
	if !opts.Layout {
		opts.LayoutOptions = nil
	}
	return hashKey("convert", dataHash, opts)
}
