package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/observability"
)

// Runner executes conversions with caching. It holds no per-conversion
// state, so one Runner serves any number of goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default entry lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means the default keyer and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// cachedResult is the convert cache payload.
type cachedResult struct {
	Data     []byte `msgpack:"data"`
	Nodes    int    `msgpack:"nodes"`
	Edges    int    `msgpack:"edges"`
	Clusters int    `msgpack:"clusters"`
}

// Convert runs one request through import, optional layout and export.
//
// Whole conversions are cached by input hash and options. On such a hit
// Result.Graph is empty and only Data and the counts in Stats are set.
func (r *Runner) Convert(ctx context.Context, req Request) (*Result, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	logger := r.Logger.With("file", displayName(req.Filename))

	key := r.Keyer.ConvertKey(cache.Hash(req.Data), cache.ConvertKeyOpts{
		From:          string(req.From),
		To:            string(req.To),
		Layout:        req.Layout,
		Compress:      req.Compress,
		LayoutOptions: req.LayoutOptions,
	})
	if !req.Refresh {
		if res, ok := r.lookup(ctx, key, req); ok {
			logger.Debug("convert cache hit", "from", req.From, "to", req.To)
			return res, nil
		}
	}

	res := &Result{Filename: req.Filename, From: req.From, To: req.To}

	start := time.Now()
	g, err := Import(ctx, req.From, req.Data)
	if err != nil {
		return nil, err
	}
	res.Stats.ImportTime = time.Since(start)
	logger.Debug("imported",
		"format", req.From,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", res.Stats.ImportTime)

	if req.Layout {
		start = time.Now()
		opts := req.LayoutOptions
		if opts.Direction == "" {
			opts.Direction = g.Direction
		}
		laid, hit, err := r.LayoutWithCacheInfo(ctx, g, opts, req.Refresh)
		if err != nil {
			return nil, err
		}
		g = laid
		res.CacheHit = hit
		res.Stats.LayoutTime = time.Since(start)
		logger.Debug("laid out",
			"engine", opts.Engine,
			"direction", g.Direction,
			"cached", hit,
			"duration", res.Stats.LayoutTime)
	}

	start = time.Now()
	data, err := Export(ctx, req.To, g, req.Compress)
	if err != nil {
		return nil, err
	}
	res.Stats.ExportTime = time.Since(start)

	res.Data = data
	res.Graph = g
	res.Stats.NodeCount = g.NodeCount()
	res.Stats.EdgeCount = g.EdgeCount()
	res.Stats.ClusterCount = countClusters(g)

	logger.Info("converted",
		"from", req.From,
		"to", req.To,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"bytes", len(data),
		"duration", res.Stats.Total())

	r.store(ctx, key, res)
	return res, nil
}

func (r *Runner) lookup(ctx context.Context, key string, req Request) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "convert")
		return nil, false
	}
	var c cachedResult
	if err := msgpack.Unmarshal(data, &c); err != nil {
		observability.Cache().OnCacheMiss(ctx, "convert")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "convert")
	return &Result{
		Filename: req.Filename,
		From:     req.From,
		To:       req.To,
		Data:     c.Data,
		Stats:    Stats{NodeCount: c.Nodes, EdgeCount: c.Edges, ClusterCount: c.Clusters},
		CacheHit: true,
	}, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	data, err := msgpack.Marshal(cachedResult{
		Data:     res.Data,
		Nodes:    res.Stats.NodeCount,
		Edges:    res.Stats.EdgeCount,
		Clusters: res.Stats.ClusterCount,
	})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLConvert)); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "convert", len(data))
}

// ConvertBatch converts reqs with at most concurrency conversions in
// flight. Results keep the order of reqs. The first failure cancels the
// remaining conversions and is returned annotated with its filename.
func (r *Runner) ConvertBatch(ctx context.Context, reqs []Request, concurrency int) ([]*Result, error) {
	return r.ConvertBatchNotify(ctx, reqs, concurrency, nil)
}

// ConvertBatchNotify is [Runner.ConvertBatch] with a callback run after
// each successful conversion, with the index of its request. The callback
// is called from the converting goroutines and must be safe for
// concurrent use.
func (r *Runner) ConvertBatchNotify(ctx context.Context, reqs []Request, concurrency int, notify func(i int, res *Result)) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]*Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Convert(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", displayName(req.Filename), err)
			}
			results[i] = res
			if notify != nil {
				notify(i, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func displayName(filename string) string {
	if filename == "" {
		return "<stdin>"
	}
	return filename
}
