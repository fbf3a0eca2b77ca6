package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/diagramkit/pkg/cache"
	"github.com/matzehuels/diagramkit/pkg/graph"
	"github.com/matzehuels/diagramkit/pkg/layout"
	"github.com/matzehuels/diagramkit/pkg/observability"
)

// Layout positions g with opts, without caching.
func Layout(ctx context.Context, g graph.Graph, opts layout.Options) (graph.Graph, error) {
	opts = opts.WithDefaults()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Engine, g.NodeCount())
	start := time.Now()

	out, err := layout.Layout(ctx, g, opts)
	hooks.OnLayoutComplete(ctx, opts.Engine, time.Since(start), err)
	return out, err
}

// LayoutWithCacheInfo positions g, reusing a cached result for the same
// graph content and options. Cached graphs are stored as msgpack.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts layout.Options, refresh bool) (graph.Graph, bool, error) {
	opts = opts.WithDefaults()

	key := ""
	if data, err := graph.MarshalBinary(g); err == nil {
		key = r.Keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{
			Engine:    opts.Engine,
			Direction: string(opts.Direction),
			Options:   opts,
		})
	}

	if key != "" && !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cached, err := graph.UnmarshalBinary(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	out, err := Layout(ctx, g, opts)
	if err != nil {
		return graph.Graph{}, false, err
	}

	if key != "" {
		if data, err := graph.MarshalBinary(out); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLLayout)); err != nil {
				r.Logger.Warn("cache write failed", "key", key, "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}
	return out, false, nil
}
