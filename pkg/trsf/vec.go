package trsf

import v3 "github.com/deadsy/sdfx/vec/v3"

// Normalize returns v scaled to unit length. ok is false for a (near) zero
// vector, in which case the zero vector is returned.
func Normalize(v v3.Vec) (u v3.Vec, ok bool) {
	return normalize(v)
}

// Reject returns the component of v perpendicular to the unit vector n.
func Reject(v, n v3.Vec) v3.Vec {
	return v.Sub(n.MulScalar(v.Dot(n)))
}

// Lerp returns the point a fraction f of the way from a to b.
func Lerp(a, b v3.Vec, f float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(f))
}
