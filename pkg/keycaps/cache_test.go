package keycaps

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

// capMesh is a 20x40 slab centered on the origin.
func capMesh() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{
			-10, -20, 0,
			10, -20, 0,
			10, 20, 5,
			-10, 20, 5,
		},
		Normals: []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	gate  chan struct{} // when non-nil, fetches wait for it to close
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *fakeFetcher) FetchMesh(ctx context.Context, name string) (*kernel.Mesh, error) {
	f.mu.Lock()
	f.calls[name]++
	err := f.fail[name]
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return capMesh(), nil
}

func (f *fakeFetcher) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeFetcher) setFail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, name)
	} else {
		f.fail[name] = err
	}
}

// newGatedCache returns a cache whose fetches block until the returned
// gate is closed.
func newGatedCache(f *fakeFetcher) (*Cache, *Metrics) {
	f.gate = make(chan struct{})
	m := NewMetrics(prometheus.NewRegistry())
	return NewCache(f, WithMetrics(m)), m
}

// waitCallers blocks until n callers have missed the cache and the shared
// fetch of name has started.
func waitCallers(t *testing.T, f *fakeFetcher, m *Metrics, name string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Lookups.WithLabelValues("miss")) == float64(n) && f.count(name) == 1
	}, 5*time.Second, time.Millisecond)
}

func TestConcurrentLookupsShareOneFetch(t *testing.T) {
	f := newFakeFetcher()
	c, m := newGatedCache(f)

	var (
		wg     sync.WaitGroup
		meshes [2]*kernel.Mesh
		errs   [2]error
	)
	for i := range meshes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			meshes[i], errs[i] = c.GetKeyMesh(context.Background(), "mt3", 1.5, 3, false)
		}()
	}
	waitCallers(t, f, m, "mt3-3-1.5", 2)
	close(f.gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Same(t, meshes[0], meshes[1])
	assert.Equal(t, 1, f.count("mt3-3-1.5"))
	assert.Equal(t, "mt3-3-1.5", meshes[0].Name)

	// Later calls are served from the results map.
	got, err := c.GetKeyMesh(context.Background(), "mt3", 1.5, 3, false)
	require.NoError(t, err)
	assert.Same(t, meshes[0], got)
	assert.Equal(t, 1, f.count("mt3-3-1.5"))
}

func TestConcurrentFailureIsShared(t *testing.T) {
	f := newFakeFetcher()
	c, m := newGatedCache(f)
	boom := errors.New("asset store unavailable")
	f.setFail("dsa-1", boom)

	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.GetKeyMesh(context.Background(), "dsa", 1, 2, false)
		}()
	}
	waitCallers(t, f, m, "dsa-1", 2)
	close(f.gate)
	wg.Wait()

	assert.ErrorIs(t, errs[0], boom)
	assert.ErrorIs(t, errs[1], boom)
	assert.Equal(t, 1, f.count("dsa-1"))
}

func TestFailureIsCachedUntilEvicted(t *testing.T) {
	f := newFakeFetcher()
	boom := errors.New("not found upstream")
	f.setFail("oem-2-1", boom)
	c := NewCache(f)

	_, err := c.GetKeyMesh(context.Background(), "oem", 1, 2, false)
	require.ErrorIs(t, err, boom)

	f.setFail("oem-2-1", nil)
	_, err = c.GetKeyMesh(context.Background(), "oem", 1, 2, false)
	require.ErrorIs(t, err, boom, "a failed key does not retry by itself")
	assert.Equal(t, 1, f.count("oem-2-1"))

	assert.True(t, c.Evict(CacheKey("oem", 1, 2, false)))
	assert.False(t, c.Evict(CacheKey("oem", 1, 2, false)))
	m, err := c.GetKeyMesh(context.Background(), "oem", 1, 2, false)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 2, f.count("oem-2-1"))
}

func TestFailureDoesNotAffectOtherKeys(t *testing.T) {
	f := newFakeFetcher()
	f.setFail("sa-1-1", errors.New("corrupt"))
	c := NewCache(f)

	_, err := c.GetKeyMesh(context.Background(), "sa", 1, 1, false)
	require.Error(t, err)
	_, err = c.GetKeyMesh(context.Background(), "sa", 1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestRotatedMeshIsSeparateEntry(t *testing.T) {
	f := newFakeFetcher()
	c := NewCache(f)

	flat, err := c.GetKeyMesh(context.Background(), "xda", 2, 0, false)
	require.NoError(t, err)
	turned, err := c.GetKeyMesh(context.Background(), "xda", 2, 0, true)
	require.NoError(t, err)

	assert.NotSame(t, flat, turned)
	assert.Equal(t, 2, f.count("xda-2"))

	_, fmax := flat.Bounds()
	_, tmax := turned.Bounds()
	assert.InDelta(t, 20, fmax.Y, 1e-4)
	assert.InDelta(t, 20, tmax.X, 1e-4) // the long side now runs along X
	assert.InDelta(t, 10, tmax.Y, 1e-4)
	assert.Len(t, turned.UVs, 2*turned.VertexCount())
}

func TestCancelledCallerDoesNotCancelFetch(t *testing.T) {
	f := newFakeFetcher()
	f.gate = make(chan struct{})
	c := NewCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetKeyMesh(ctx, "choc", 1, 0, false)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller still waiting")
	}

	close(f.gate)
	m, err := c.GetKeyMesh(context.Background(), "choc", 1, 0, false)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 1, f.count("choc-1"))
}

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	f := newFakeFetcher()
	f.setFail("mt3-1-1", errors.New("gone"))
	c := NewCache(f, WithMetrics(metrics))

	_, _ = c.GetKeyMesh(context.Background(), "dsa", 1, 0, false)
	_, _ = c.GetKeyMesh(context.Background(), "dsa", 1, 0, false)
	_, _ = c.GetKeyMesh(context.Background(), "mt3", 1, 1, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fetches.WithLabelValues("error")))
}
