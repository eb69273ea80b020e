package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/observability"
)

// CachingLoader wraps a GridLoader with an in-memory LRU cache so runs over
// the same snapshot (every region of a dataset reads one file) parse it once.
type CachingLoader struct {
	inner   domain.GridLoader
	cache   *lru.Cache[string, *domain.RasterGrid]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachingLoader creates a cache decorator around a loader. Entries are
// keyed by dataset, path, file size and mtime, so a replaced source file is
// never served stale.
func NewCachingLoader(inner domain.GridLoader, maxEntries int, metrics *observability.Metrics, logger *slog.Logger) (*CachingLoader, error) {
	cache, err := lru.New[string, *domain.RasterGrid](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("%w: grid cache size %d: %v", domain.ErrInput, maxEntries, err)
	}
	return &CachingLoader{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Load returns a deep copy of the cached grid when the file is unchanged,
// otherwise loads through and caches the result. Copies keep downstream
// stages from mutating the cached snapshot.
func (c *CachingLoader) Load(ctx context.Context, source string, spec domain.DatasetSpec) (*domain.RasterGrid, error) {
	key, ok := c.key(source, spec)
	if !ok {
		// Stat failed; let the inner loader report the open error.
		return c.inner.Load(ctx, source, spec)
	}

	if g, hit := c.cache.Get(key); hit {
		c.metrics.GridCacheHits.Inc()
		c.logger.Debug("grid cache hit", "source", source, "dataset", spec.ID)
		return g.Clone(), nil
	}
	c.metrics.GridCacheMisses.Inc()

	g, err := c.inner.Load(ctx, source, spec)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, g.Clone())
	return g, nil
}

// Len reports the number of cached grids.
func (c *CachingLoader) Len() int {
	return c.cache.Len()
}

func (c *CachingLoader) key(source string, spec domain.DatasetSpec) (string, bool) {
	fi, err := os.Stat(source)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%s|%d|%d", spec.ID, source, fi.Size(), fi.ModTime().UnixNano()), true
}
