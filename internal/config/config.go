// Package config loads diagramkit.toml or diagramkit.yaml.
//
// A config file supplies defaults for the CLI and the server; explicit
// command-line flags override it. The file has four sections:
//
//	[layout]
//	direction = "LR"
//	engine = "layered"
//	node_width = 120
//
//	[cache]
//	backend = "file"   # none, file or redis
//	ttl = "24h"
//
//	[drawio]
//	compress = true
//
//	[server]
//	addr = ":8080"
//
// The YAML form uses the same keys.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/layout"
)

// FileNames are the names searched by Find, in order.
var FileNames = []string{"diagramkit.toml", "diagramkit.yaml", "diagramkit.yml"}

// Config is the file-level configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout" yaml:"layout"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Drawio DrawioConfig `toml:"drawio" yaml:"drawio"`
	Server ServerConfig `toml:"server" yaml:"server"`

	// Path is the file the config was read from, if any.
	Path string `toml:"-" yaml:"-"`
}

// LayoutConfig mirrors layout.Options. Margin sets both margins.
type LayoutConfig struct {
	Direction      string  `toml:"direction" yaml:"direction"`
	Engine         string  `toml:"engine" yaml:"engine"`
	NodeWidth      float64 `toml:"node_width" yaml:"node_width"`
	NodeHeight     float64 `toml:"node_height" yaml:"node_height"`
	NodeSep        float64 `toml:"node_sep" yaml:"node_sep"`
	RankSep        float64 `toml:"rank_sep" yaml:"rank_sep"`
	Margin         float64 `toml:"margin" yaml:"margin"`
	ClusterPadding float64 `toml:"cluster_padding" yaml:"cluster_padding"`
	Iterations     int     `toml:"iterations" yaml:"iterations"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend" yaml:"backend"`
	Dir      string   `toml:"dir" yaml:"dir"`
	RedisURL string   `toml:"redis_url" yaml:"redis_url"`
	TTL      Duration `toml:"ttl" yaml:"ttl"`
}

// DrawioConfig holds drawio export settings.
type DrawioConfig struct {
	Compress bool `toml:"compress" yaml:"compress"`
}

// ServerConfig configures `diagramkit serve`.
type ServerConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	MaxBodySize int64    `toml:"max_body_size" yaml:"max_body_size"`
}

// Server defaults.
const (
	DefaultAddr        = ":8080"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 10 << 20
)

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{Backend: cache.BackendFile},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			Timeout:     Duration(DefaultTimeout),
			MaxBodySize: DefaultMaxBodySize,
		},
	}
}

// Load reads the file at path. The format follows the extension.
// Unknown keys are rejected so that typos do not pass silently.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config file type %q", ext)
	}

	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "%s", path)
	}
	return cfg, nil
}

// Find returns the first config file in dirs, or "" when there is none.
func Find(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

// SearchDirs is the working directory followed by the user config
// directory.
func SearchDirs() []string {
	dirs := []string{"."}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, "diagramkit"))
	}
	return dirs
}

// Resolve loads path if set, otherwise the first file found in
// SearchDirs, otherwise the defaults.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = Find(SearchDirs()...)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.LayoutOptions().WithDefaults().Validate(); err != nil {
		return err
	}
	if err := errors.ValidateOneOf("cache.backend", c.Cache.Backend,
		"", cache.BackendNone, cache.BackendFile, cache.BackendRedis); err != nil {
		return err
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidOptions, "cache.redis_url is required for the redis backend")
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "cache.ttl must not be negative")
	}
	if c.Server.MaxBodySize < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "server.max_body_size must not be negative")
	}
	return nil
}

// LayoutOptions converts the layout section, filling defaults. An unset
// direction stays empty so that layouts follow each diagram's own.
func (c *Config) LayoutOptions() layout.Options {
	l := c.Layout
	dir := strings.ToUpper(l.Direction)
	if dir == "TD" {
		dir = string(graph.DirectionTB)
	}
	opts := layout.Options{
		Direction:      graph.Direction(dir),
		NodeWidth:      l.NodeWidth,
		NodeHeight:     l.NodeHeight,
		NodeSep:        l.NodeSep,
		RankSep:        l.RankSep,
		MarginX:        l.Margin,
		MarginY:        l.Margin,
		ClusterPadding: l.ClusterPadding,
		Engine:         l.Engine,
		Iterations:     l.Iterations,
	}.WithDefaults()
	opts.Direction = graph.Direction(dir)
	return opts
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Config {
	return cache.Config{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		RedisURL: c.Cache.RedisURL,
	}
}

// Duration is a time.Duration written as a Go duration string ("90s",
// "24h") in both TOML and YAML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML
// decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q", text)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
