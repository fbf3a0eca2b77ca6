package cache

import "fmt"

// Backend names accepted by Open.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Dir      string // file backend; empty means DefaultDir()
	RedisURL string
}

// Open constructs the configured backend. An empty backend name disables
// caching.
func Open(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir()
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis backend: no url configured")
		}
		c, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
