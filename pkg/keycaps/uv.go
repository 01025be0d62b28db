package keycaps

import "github.com/chazu/cuttlecase/pkg/kernel"

// ApplyUV projects every vertex of m top-down onto the unit square and
// stores the result in m.UVs. The square spans twice the smaller of the
// bounding box's positive X and Y extents, centered on the origin, so the
// legend area of a keycap centered at the origin fills it.
func ApplyUV(m *kernel.Mesh) {
	_, hi := m.Bounds()
	size := 2 * min(hi.X, hi.Y)
	if size == 0 {
		size = 1
	}
	uvs := make([]float32, 2*m.VertexCount())
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		uvs[2*i] = float32(v.X/size + 0.5)
		uvs[2*i+1] = float32(v.Y/size + 0.5)
	}
	m.UVs = uvs
}
