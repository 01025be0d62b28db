// Package kernel defines the abstract solid kernel used to build preview
// meshes for trackballs, screw bosses and board outlines, and the Mesh type
// shared with the keycap cache. The kernel abstraction allows swapping
// backends without changing the rest of the system.
package kernel

import "github.com/chazu/cuttlecase/pkg/trsf"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid // minimum corner at the origin
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Place maps a solid from local to world coordinates through t.
	Place(s Solid, t trsf.Trsf) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
