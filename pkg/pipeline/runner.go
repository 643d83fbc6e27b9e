package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgtree/pkg/cache"
	"github.com/matzehuels/orgtree/pkg/graph"
	"github.com/matzehuels/orgtree/pkg/observability"
	"github.com/matzehuels/orgtree/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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

// Execute runs the complete load → chart → render pipeline with caching.
// Formats already in the cache are not rendered again; the chart is only
// built when at least one format or the layout is missing.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{Artifacts: make(map[string][]byte, len(opts.Formats))}

	// Stage 1: Load
	loadStart := time.Now()
	records, hash, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.DataHash = hash
	result.Stats.RecordCount = len(records)
	result.Stats.LoadTime = time.Since(loadStart)
	r.Logger.Info("loaded records", "records", len(records), "duration", result.Stats.LoadTime)

	// Cache lookup
	layoutKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())
	var missing []string
	if !opts.Refresh {
		if data, ok := r.get(ctx, "layout", layoutKey); ok {
			if l, err := graph.UnmarshalLayout(data); err == nil {
				result.Layout = l
				result.CacheInfo.LayoutHit = true
			}
		}
		for _, format := range opts.Formats {
			if data, ok := r.get(ctx, "artifact", r.artifactKey(hash, opts, format)); ok {
				result.Artifacts[format] = data
			} else {
				missing = append(missing, format)
			}
		}
	} else {
		missing = opts.Formats
	}
	if len(missing) == 0 && result.CacheInfo.LayoutHit {
		result.CacheInfo.RenderHit = true
		result.Stats.VisibleNodes = len(result.Layout.Nodes)
		r.Logger.Info("all artifacts cached", "formats", opts.Formats)
		return result, nil
	}

	// Stage 2: Chart
	chartStart := time.Now()
	c, err := BuildChart(records, opts)
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	result.Stats.ChartTime = time.Since(chartStart)
	result.Stats.VisibleNodes = len(c.Visible())
	result.Layout = graph.Export(c.Frame(), c.View())
	if layoutData, err := graph.MarshalLayout(result.Layout); err == nil {
		r.set(ctx, "layout", layoutKey, layoutData)
	}
	r.Logger.Info("built chart",
		"visible", result.Stats.VisibleNodes,
		"duration", result.Stats.ChartTime)

	// Stage 3: Render
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	renderStart := time.Now()
	rendered, err := renderFormats(ctx, c.Frame(), c.View(), opts, missing)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, missing, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	for format, data := range rendered {
		result.Artifacts[format] = data
		r.set(ctx, "artifact", r.artifactKey(hash, opts, format), data)
	}
	r.Logger.Info("rendered outputs", "formats", missing, "duration", result.Stats.RenderTime)
	return result, nil
}

// Load runs only the load stage.
func (r *Runner) Load(ctx context.Context, opts Options) ([]tree.Record, string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", err
	}
	return Load(ctx, opts)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) artifactKey(hash string, opts Options, format string) string {
	return r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
