package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get = %q, %v; want miss", data, hit)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v2" {
		t.Fatalf("Get(k) = %q, %v, %v; want v2", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete should be a no-op: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("expired entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry should be removed, stat err = %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	lk1 := k.LayoutKey("abc", LayoutKeyOpts{Engine: "layered", Direction: "TB"})
	lk2 := k.LayoutKey("abc", LayoutKeyOpts{Engine: "constraint", Direction: "TB"})
	lk3 := k.LayoutKey("abc", LayoutKeyOpts{Engine: "layered", Direction: "TB", Options: map[string]int{"node_sep": 10}})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("different LayoutKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey = %q, want layout: prefix", lk1)
	}
	if lk1 != k.LayoutKey("abc", LayoutKeyOpts{Engine: "layered", Direction: "TB"}) {
		t.Error("LayoutKey should be deterministic")
	}

	ck1 := k.ConvertKey("abc", ConvertKeyOpts{From: "dot", To: "mermaid"})
	ck2 := k.ConvertKey("abc", ConvertKeyOpts{From: "dot", To: "drawio"})
	if ck1 == ck2 {
		t.Error("different targets should produce different keys")
	}

	// Layout options only matter when layout is requested.
	ck3 := k.ConvertKey("abc", ConvertKeyOpts{From: "dot", To: "mermaid", LayoutOptions: "ignored"})
	if ck1 != ck3 {
		t.Error("LayoutOptions should be ignored without Layout")
	}
	ck4 := k.ConvertKey("abc", ConvertKeyOpts{From: "dot", To: "mermaid", Layout: true, LayoutOptions: "x"})
	ck5 := k.ConvertKey("abc", ConvertKeyOpts{From: "dot", To: "mermaid", Layout: true, LayoutOptions: "y"})
	if ck4 == ck5 {
		t.Error("LayoutOptions should change the key when Layout is set")
	}
}

func TestScopedKeyer(t *testing.T) {
	tests := []struct {
		name  string
		inner Keyer
	}{
		{"default inner", NewDefaultKeyer()},
		{"nil inner", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scoped := NewScopedKeyer(tt.inner, "server:")
			base := NewDefaultKeyer()

			opts := LayoutKeyOpts{Engine: "layered"}
			if got, want := scoped.LayoutKey("h", opts), "server:"+base.LayoutKey("h", opts); got != want {
				t.Errorf("LayoutKey = %q, want %q", got, want)
			}
			copts := ConvertKeyOpts{From: "json", To: "dot"}
			if got, want := scoped.ConvertKey("h", copts), "server:"+base.ConvertKey("h", copts); got != want {
				t.Errorf("ConvertKey = %q, want %q", got, want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		check   func(t *testing.T, c Cache)
	}{
		{name: "empty", cfg: Config{}, check: func(t *testing.T, c Cache) {
			if _, ok := c.(NullCache); !ok {
				t.Errorf("got %T, want NullCache", c)
			}
		}},
		{name: "file", cfg: Config{Backend: BackendFile, Dir: t.TempDir()}, check: func(t *testing.T, c Cache) {
			if _, ok := c.(*FileCache); !ok {
				t.Errorf("got %T, want *FileCache", c)
			}
		}},
		{name: "redis", cfg: Config{Backend: BackendRedis, RedisURL: "redis://localhost:6379/2"}, check: func(t *testing.T, c Cache) {
			rc, ok := c.(*RedisCache)
			if !ok {
				t.Fatalf("got %T, want *RedisCache", c)
			}
			if rc.Options().DB != 2 || rc.Options().Addr != "localhost:6379" {
				t.Errorf("options = %+v", rc.Options())
			}
		}},
		{name: "redis without url", cfg: Config{Backend: BackendRedis}, wantErr: true},
		{name: "unknown", cfg: Config{Backend: "memcached"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			tt.check(t, c)
		})
	}

	_, err := Open(Config{Backend: "memcached"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache("http://example.com"); err == nil {
		t.Error("expected error for non-redis scheme")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if IsRetryable(ErrUnknownBackend) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestNetworkError(t *testing.T) {
	if err := networkError(context.Canceled); err != context.Canceled {
		t.Errorf("context errors should pass through, got %v", err)
	}
	err := networkError(errors.New("dial tcp: refused"))
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("transport error should be retryable ErrNetwork, got %v", err)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := RetryDelay
	RetryDelay = time.Millisecond
	defer func() { RetryDelay = old }()

	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrUnknownBackend })
	if err != ErrUnknownBackend || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("should return context error: %v", err)
	}
}
