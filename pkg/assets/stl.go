package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/kernel"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal, three vertices, attribute count
)

// ErrBadSTL is returned for data that is not a complete binary STL.
var ErrBadSTL = errors.New("assets: malformed binary STL")

// DecodeSTL reads a binary STL into an unindexed mesh: three vertices per
// facet, each carrying the facet normal. A zero stored normal is recomputed
// from the winding.
func DecodeSTL(data []byte) (*kernel.Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadSTL, len(data))
	}
	n := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body) < n*stlTriangleSize {
		return nil, fmt.Errorf("%w: %d facets declared, %d bytes of facet data", ErrBadSTL, n, len(body))
	}

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, n*9),
		Normals:  make([]float32, 0, n*9),
		Indices:  make([]uint32, 0, n*3),
	}
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
	}
	for i := range n {
		off := i * stlTriangleSize
		normal := [3]float32{f(off), f(off + 4), f(off + 8)}
		var tri [9]float32
		for j := range tri {
			tri[j] = f(off + 12 + 4*j)
		}
		if normal == [3]float32{} {
			normal = faceNormal(tri)
		}
		for v := range 3 {
			m.Vertices = append(m.Vertices, tri[3*v:3*v+3]...)
			m.Normals = append(m.Normals, normal[:]...)
			m.Indices = append(m.Indices, uint32(3*i+v))
		}
	}
	return m, nil
}

func faceNormal(tri [9]float32) [3]float32 {
	a := v3.Vec{X: float64(tri[0]), Y: float64(tri[1]), Z: float64(tri[2])}
	b := v3.Vec{X: float64(tri[3]), Y: float64(tri[4]), Z: float64(tri[5])}
	c := v3.Vec{X: float64(tri[6]), Y: float64(tri[7]), Z: float64(tri[8])}
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(n.X / l), float32(n.Y / l), float32(n.Z / l)}
}

// EncodeSTL writes m as a binary STL, one facet per index triple. The facet
// normal is taken from the first vertex normal when the mesh has normals.
func EncodeSTL(w io.Writer, m *kernel.Mesh) error {
	var buf bytes.Buffer
	header := make([]byte, stlHeaderSize)
	copy(header, "cuttlecase "+m.Name)
	buf.Write(header)

	tris := m.TriangleCount()
	_ = binary.Write(&buf, binary.LittleEndian, uint32(tris))
	for t := range tris {
		var facet [12]float32
		var tri [9]float32
		for v := range 3 {
			idx := int(m.Indices[3*t+v])
			copy(tri[3*v:], m.Vertices[3*idx:3*idx+3])
		}
		if len(m.Normals) == len(m.Vertices) {
			idx := int(m.Indices[3*t])
			copy(facet[:3], m.Normals[3*idx:3*idx+3])
		} else {
			n := faceNormal(tri)
			copy(facet[:3], n[:])
		}
		copy(facet[3:], tri[:])
		_ = binary.Write(&buf, binary.LittleEndian, facet)
		_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	_, err := w.Write(buf.Bytes())
	return err
}
