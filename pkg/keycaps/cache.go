package keycaps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/logging"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Fetcher retrieves a raw keycap mesh by asset name.
type Fetcher interface {
	FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l logging.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

// WithMetrics sets the counters the cache reports to.
func WithMetrics(m *Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

type result struct {
	mesh *kernel.Mesh
	err  error
}

// Cache serves UV-mapped keycap meshes. Concurrent requests for the same
// key share one fetch. Every outcome, including a failed fetch, is kept
// until Evict removes it.
type Cache struct {
	fetch   Fetcher
	log     logging.Logger
	metrics *Metrics
	group   singleflight.Group

	mu      sync.RWMutex
	results map[string]result
}

// NewCache returns an empty cache backed by f.
func NewCache(f Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetch:   f,
		log:     logging.NewNopLogger(),
		metrics: NewMetrics(nil),
		results: make(map[string]result),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) lookup(key string) (result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[key]
	return r, ok
}

// GetKeyMesh returns the mesh for a keycap. aspect should be one of Aspects
// and row is ignored for uniform profiles. Rotated meshes are turned a
// quarter turn about Z. The returned mesh is shared and must not be
// modified.
//
// If ctx is done before the mesh is ready, GetKeyMesh returns ctx.Err() but
// the fetch carries on for other callers and the cache.
func (c *Cache) GetKeyMesh(ctx context.Context, profile string, aspect float64, row int, rotated bool) (*kernel.Mesh, error) {
	key := CacheKey(profile, aspect, row, rotated)
	if r, ok := c.lookup(key); ok {
		c.metrics.lookup(true)
		return r.mesh, r.err
	}
	c.metrics.lookup(false)

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if r, ok := c.lookup(key); ok {
			return r.mesh, r.err
		}
		m, err := c.load(fetchCtx, AssetName(profile, aspect, row), rotated)
		c.mu.Lock()
		c.results[key] = result{mesh: m, err: err}
		c.mu.Unlock()
		return m, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*kernel.Mesh), nil
	}
}

func (c *Cache) load(ctx context.Context, name string, rotated bool) (*kernel.Mesh, error) {
	raw, err := c.fetch.FetchMesh(ctx, name)
	if err == nil && raw == nil {
		err = errors.New("fetcher returned no mesh")
	}
	c.metrics.fetch(err)
	if err != nil {
		c.log.Warn("keycap fetch failed", logging.String("asset", name), logging.Err(err))
		return nil, fmt.Errorf("keycaps: fetch %s: %w", name, err)
	}

	m := raw
	if rotated {
		m = raw.Transformed(trsf.New().RotateLocal(90, trsf.UnitZ))
	}
	m.Name = name
	ApplyUV(m)
	c.log.Debug("keycap cached", logging.String("asset", name), logging.Bool("rotated", rotated),
		logging.Int("triangles", m.TriangleCount()))
	return m, nil
}

// Evict drops the cached outcome for key so the next request fetches
// again. It reports whether an entry was present.
func (c *Cache) Evict(key string) bool {
	c.mu.Lock()
	_, ok := c.results[key]
	delete(c.results, key)
	c.mu.Unlock()
	c.group.Forget(key)
	return ok
}

// Len returns the number of cached outcomes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
