// Package trsf implements the rigid transform frame used to place keys,
// wall points and mounting hardware in case-local space. A Trsf is an
// immutable value: every operation returns a new frame.
package trsf

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Unit axes of the case-local coordinate system.
var (
	UnitX = v3.Vec{X: 1}
	UnitY = v3.Vec{Y: 1}
	UnitZ = v3.Vec{Z: 1}
)

// Trsf is a rotation plus translation. The axes are always orthonormal and
// right-handed.
type Trsf struct {
	x, y, z v3.Vec // local axes in world coordinates
	o       v3.Vec // origin in world coordinates
}

// New returns the identity frame.
func New() Trsf {
	return Trsf{x: UnitX, y: UnitY, z: UnitZ}
}

// At returns an unrotated frame at p.
func At(p v3.Vec) Trsf {
	return New().Translate(p.X, p.Y, p.Z)
}

// FromBasis builds a frame at origin whose Z axis is zAxis and whose X axis
// is xAxis made perpendicular to it. Y completes a right-handed basis.
// Degenerate inputs fall back to the world axes.
func FromBasis(origin, xAxis, zAxis v3.Vec) Trsf {
	z, ok := normalize(zAxis)
	if !ok {
		z = UnitZ
	}
	x, ok := normalize(xAxis.Sub(z.MulScalar(xAxis.Dot(z))))
	if !ok {
		// xAxis was parallel to z; pick any perpendicular.
		ref := UnitX
		if math.Abs(z.X) > 0.9 {
			ref = UnitY
		}
		x, _ = normalize(ref.Sub(z.MulScalar(ref.Dot(z))))
	}
	return Trsf{x: x, y: z.Cross(x), z: z, o: origin}
}

// Origin returns the frame origin in world coordinates.
func (t Trsf) Origin() v3.Vec { return t.o }

// XAxis returns the local X axis in world coordinates.
func (t Trsf) XAxis() v3.Vec { return t.x }

// YAxis returns the local Y axis in world coordinates.
func (t Trsf) YAxis() v3.Vec { return t.y }

// ZAxis returns the local Z axis in world coordinates.
func (t Trsf) ZAxis() v3.Vec { return t.z }

// Translate moves the frame by (x, y, z) in world coordinates.
func (t Trsf) Translate(x, y, z float64) Trsf {
	t.o = t.o.Add(v3.Vec{X: x, Y: y, Z: z})
	return t
}

// TranslateBy moves the frame by d in world coordinates.
func (t Trsf) TranslateBy(d v3.Vec) Trsf {
	t.o = t.o.Add(d)
	return t
}

// TranslateLocal moves the frame by (x, y, z) along its own axes.
func (t Trsf) TranslateLocal(x, y, z float64) Trsf {
	t.o = t.Apply(v3.Vec{X: x, Y: y, Z: z})
	return t
}

// Rotate rotates the frame by deg degrees about a world axis through the
// world origin.
func (t Trsf) Rotate(deg float64, axis v3.Vec) Trsf {
	k, ok := normalize(axis)
	if !ok {
		return t
	}
	a := deg * math.Pi / 180
	return Trsf{
		x: rotate(t.x, k, a),
		y: rotate(t.y, k, a),
		z: rotate(t.z, k, a),
		o: rotate(t.o, k, a),
	}
}

// RotateLocal rotates the frame by deg degrees about one of its own axes,
// keeping the origin fixed.
func (t Trsf) RotateLocal(deg float64, localAxis v3.Vec) Trsf {
	k, ok := normalize(t.ApplyDir(localAxis))
	if !ok {
		return t
	}
	a := deg * math.Pi / 180
	t.x = rotate(t.x, k, a)
	t.y = rotate(t.y, k, a)
	t.z = rotate(t.z, k, a)
	return t
}

// Apply maps a point from local to world coordinates.
func (t Trsf) Apply(p v3.Vec) v3.Vec {
	return t.o.Add(t.ApplyDir(p))
}

// ApplyDir maps a direction from local to world coordinates.
func (t Trsf) ApplyDir(d v3.Vec) v3.Vec {
	return t.x.MulScalar(d.X).Add(t.y.MulScalar(d.Y)).Add(t.z.MulScalar(d.Z))
}

// Mul composes two frames: the result maps local coordinates through o
// first and then through t.
func (t Trsf) Mul(o Trsf) Trsf {
	return Trsf{
		x: t.ApplyDir(o.x),
		y: t.ApplyDir(o.y),
		z: t.ApplyDir(o.z),
		o: t.Apply(o.o),
	}
}

// Flatten projects the frame onto the z=0 plane, keeping only its heading
// about the world Z axis.
func (t Trsf) Flatten() Trsf {
	heading := math.Atan2(t.x.Y, t.x.X)
	if math.Abs(t.x.X) < 1e-9 && math.Abs(t.x.Y) < 1e-9 {
		// X points straight up or down; use the Y axis heading instead.
		heading = math.Atan2(t.y.Y, t.y.X) - math.Pi/2
	}
	s, c := math.Sincos(heading)
	return Trsf{
		x: v3.Vec{X: c, Y: s},
		y: v3.Vec{X: -s, Y: c},
		z: UnitZ,
		o: v3.Vec{X: t.o.X, Y: t.o.Y},
	}
}

// Euler returns the rotation as X, Y, Z Euler angles in degrees, applied in
// X then Y then Z order.
func (t Trsf) Euler() (rx, ry, rz float64) {
	sy := clamp(-t.x.Z, -1, 1)
	ry = math.Asin(sy)
	if math.Abs(sy) < 1-1e-9 {
		rx = math.Atan2(t.y.Z, t.z.Z)
		rz = math.Atan2(t.x.Y, t.x.X)
	} else {
		rz = math.Atan2(-t.y.X, t.y.Y)
	}
	const toDeg = 180 / math.Pi
	return rx * toDeg, ry * toDeg, rz * toDeg
}

// M44 returns the frame as an sdfx transformation matrix.
func (t Trsf) M44() sdf.M44 {
	rx, ry, rz := t.Euler()
	const toRad = math.Pi / 180
	rot := sdf.RotateZ(rz * toRad).Mul(sdf.RotateY(ry * toRad)).Mul(sdf.RotateX(rx * toRad))
	return sdf.Translate3d(t.o).Mul(rot)
}

// Matrix returns the frame as a column-major 4x4 matrix.
func (t Trsf) Matrix() [16]float64 {
	return [16]float64{
		t.x.X, t.x.Y, t.x.Z, 0,
		t.y.X, t.y.Y, t.y.Z, 0,
		t.z.X, t.z.Y, t.z.Z, 0,
		t.o.X, t.o.Y, t.o.Z, 1,
	}
}

// ApproxEqual reports whether two frames agree to within tol on every axis
// and on the origin.
func (t Trsf) ApproxEqual(o Trsf, tol float64) bool {
	return near(t.x, o.x, tol) && near(t.y, o.y, tol) && near(t.z, o.z, tol) && near(t.o, o.o, tol)
}

// rotate applies Rodrigues' formula: v rotated by angle a about unit axis k.
func rotate(v, k v3.Vec, a float64) v3.Vec {
	s, c := math.Sincos(a)
	return v.MulScalar(c).
		Add(k.Cross(v).MulScalar(s)).
		Add(k.MulScalar(k.Dot(v) * (1 - c)))
}

func normalize(v v3.Vec) (v3.Vec, bool) {
	l := v.Length()
	if l < 1e-12 {
		return v3.Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

func near(a, b v3.Vec, tol float64) bool {
	return a.Sub(b).Length() <= tol
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
