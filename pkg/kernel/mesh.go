package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex when
// present, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`      // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`       // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs,omitempty"` // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`       // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`          // keycap asset or preview part name
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh has a zero box.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	if m.IsEmpty() {
		return v3.Vec{}, v3.Vec{}
	}
	min = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		min = v3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = v3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}

// Transformed returns a copy of the mesh with vertices and normals mapped
// through t. Indices and UVs are shared with m.
func (m *Mesh) Transformed(t trsf.Trsf) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Normals:  make([]float32, len(m.Normals)),
		UVs:      m.UVs,
		Indices:  m.Indices,
		Name:     m.Name,
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		p := t.Apply(v3.Vec{X: float64(m.Vertices[i]), Y: float64(m.Vertices[i+1]), Z: float64(m.Vertices[i+2])})
		out.Vertices[i], out.Vertices[i+1], out.Vertices[i+2] = float32(p.X), float32(p.Y), float32(p.Z)
	}
	for i := 0; i+2 < len(m.Normals); i += 3 {
		n := t.ApplyDir(v3.Vec{X: float64(m.Normals[i]), Y: float64(m.Normals[i+1]), Z: float64(m.Normals[i+2])})
		out.Normals[i], out.Normals[i+1], out.Normals[i+2] = float32(n.X), float32(n.Y), float32(n.Z)
	}
	return out
}
