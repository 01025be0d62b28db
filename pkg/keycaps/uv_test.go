package keycaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

func TestApplyUV(t *testing.T) {
	// Bounding box max is (10, 20), so the projection square is 20 wide.
	m := &kernel.Mesh{Vertices: []float32{
		10, 5, 0,
		-10, -5, 0,
		0, 20, 3,
		0, 0, 1,
	}}
	ApplyUV(m)
	require.Len(t, m.UVs, 8)

	want := []float32{
		1, 0.75,
		0, 0.25,
		0.5, 1.5,
		0.5, 0.5,
	}
	for i := range want {
		assert.InDelta(t, want[i], m.UVs[i], 1e-6, "uv[%d]", i)
	}
}

func TestApplyUVUsesSmallerExtent(t *testing.T) {
	m := &kernel.Mesh{Vertices: []float32{
		-30, -9, 0,
		30, 9, 0,
	}}
	ApplyUV(m)
	// size = 2 * min(30, 9) = 18
	assert.InDelta(t, 30.0/18+0.5, m.UVs[2], 1e-6)
	assert.InDelta(t, 1.0, m.UVs[3], 1e-6)
}

func TestApplyUVEmptyMesh(t *testing.T) {
	m := &kernel.Mesh{}
	ApplyUV(m)
	assert.Empty(t, m.UVs)
}
