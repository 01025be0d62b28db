// Package boundary orders key critical points into the closed loop that
// outlines a keyboard case.
package boundary

import (
	"errors"
	"fmt"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/trsf"
)

// ErrNoBoundary is returned when no closed loop can be formed.
var ErrNoBoundary = errors.New("boundary: no valid loop")

// Options constrain the loop a Solver may return.
type Options struct {
	NoBadWalls     bool // reject self-intersecting walls
	ConstrainKeys  bool // keep every key footprint inside the loop
	NoKeyTriangles bool // reject degenerate triangles spanning a single key
}

// Result is an ordered loop of indices into the flattened critical-point
// list (keys in order, points of each key in order).
type Result struct {
	Boundary []int
}

// Solver computes a boundary loop.
//
// pts2D and pts3D are per-key critical points, frames the per-key frames.
// bottomZ and up describe the plane the case sits on.
type Solver interface {
	Solve(pts2D [][]v2.Vec, pts3D [][]trsf.Trsf, frames []trsf.Trsf, bottomZ float64, up v3.Vec, opts Options) (*Result, error)
}

// Flatten concatenates per-key point lists in key order. Loop indices
// returned by a Solver index into this slice.
func Flatten[T any](perKey [][]T) []T {
	var n int
	for _, p := range perKey {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range perKey {
		out = append(out, p...)
	}
	return out
}

// HullSolver returns the counter-clockwise convex hull of the 2D critical
// points. Convex hulls never self-intersect and always contain every key,
// so all Options are satisfied trivially.
type HullSolver struct{}

// Solve implements Solver.
func (HullSolver) Solve(pts2D [][]v2.Vec, _ [][]trsf.Trsf, _ []trsf.Trsf, _ float64, _ v3.Vec, _ Options) (*Result, error) {
	pts := Flatten(pts2D)
	idx := hull(pts)
	if len(idx) < 3 {
		return nil, fmt.Errorf("%w: %d points span fewer than 3 hull vertices", ErrNoBoundary, len(pts))
	}
	return &Result{Boundary: idx}, nil
}

func cross(o, a, b v2.Vec) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// hull is Andrew's monotone chain. Collinear points are dropped.
func hull(pts []v2.Vec) []int {
	n := len(pts)
	if n < 3 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := pts[order[a]], pts[order[b]]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return pa.Y < pb.Y
	})

	out := make([]int, 0, 2*n)
	for _, i := range order {
		for len(out) >= 2 && cross(pts[out[len(out)-2]], pts[out[len(out)-1]], pts[i]) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, i)
	}
	lower := len(out) + 1
	for k := n - 2; k >= 0; k-- {
		i := order[k]
		for len(out) >= lower && cross(pts[out[len(out)-2]], pts[out[len(out)-1]], pts[i]) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, i)
	}
	return out[:len(out)-1]
}
