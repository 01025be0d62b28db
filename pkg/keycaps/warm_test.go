package keycaps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets(t *testing.T) {
	all := Assets()
	// 3 uniform profiles x 4 aspects + 4 sculpted profiles x 6 rows x 4 aspects.
	assert.Len(t, all, 108)

	seen := make(map[string]bool, len(all))
	for _, a := range all {
		assert.False(t, seen[a.Name()], "duplicate asset %s", a.Name())
		seen[a.Name()] = true
	}
	assert.True(t, seen["dsa-1.25"])
	assert.True(t, seen["sa-0-2"])
	assert.False(t, seen["dsa-3-1"])
}

func TestWarm(t *testing.T) {
	f := newFakeFetcher()
	f.setFail("mt3-5-2", errors.New("missing"))
	c := NewCache(f)

	assets := []Asset{
		{Profile: "dsa", Aspect: 1},
		{Profile: "mt3", Row: 5, Aspect: 2},
		{Profile: "sa", Row: 3, Aspect: 1.5},
	}
	meshes, err := c.Warm(context.Background(), assets, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mt3-5-2")
	assert.Len(t, meshes, 2)
	assert.Equal(t, "sa-3-1.5", meshes["sa-3-1.5"].Name)
	assert.Equal(t, 3, c.Len())

	// A second warm is served from the cache.
	_, err = c.Warm(context.Background(), assets[:1], 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count("dsa-1"))
}

func TestWarmCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCache(newFakeFetcher()).Warm(ctx, Assets(), 4)
	assert.ErrorIs(t, err, context.Canceled)
}
