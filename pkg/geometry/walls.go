package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/boundary"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// WallPoint describes the wall at one boundary loop position. Prev, Point
// and Next index the flattened critical points. The four frames share the
// outward Normal as their X axis and the up axis as their Z axis.
type WallPoint struct {
	Prev, Point, Next int

	Normal v3.Vec
	Ti     trsf.Trsf // top, inner surface
	To     trsf.Trsf // top, outer surface
	Bi     trsf.Trsf // bottom, inner surface
	Bo     trsf.Trsf // bottom, outer surface
}

// buildWalls runs build over every loop position with its cyclic neighbours.
func (g *Geometry) buildWalls(offset float64, build func(prev, cur, next v3.Vec) WallPoint) ([]WallPoint, error) {
	loop, err := g.Boundary()
	if err != nil {
		return nil, err
	}
	pts := boundary.Flatten(g.CriticalPoints())
	n := len(loop)
	out := make([]WallPoint, n)
	for i, cur := range loop {
		prev := loop[(i-1+n)%n]
		next := loop[(i+1)%n]
		w := build(pts[prev].Origin(), pts[cur].Origin(), pts[next].Origin())
		w.Prev, w.Point, w.Next = prev, cur, next
		out[i] = w
	}
	return out, nil
}

// edgeNormal is the outward normal of a counter-clockwise edge along d.
func edgeNormal(d, up v3.Vec) (v3.Vec, bool) {
	return trsf.Normalize(trsf.Reject(d, up).Cross(up))
}

// outwardNormal bisects the normals of the edges meeting at cur.
func (g *Geometry) outwardNormal(prev, cur, next v3.Vec) v3.Vec {
	up := g.WorldZ()
	n1, ok1 := edgeNormal(cur.Sub(prev), up)
	n2, ok2 := edgeNormal(next.Sub(cur), up)
	switch {
	case ok1 && ok2:
		if n, ok := trsf.Normalize(n1.Add(n2)); ok {
			return n
		}
		return n2
	case ok1:
		return n1
	case ok2:
		return n2
	}
	return g.WorldX()
}

// dropTo projects p along up onto the plane p.up = z.
func dropTo(p, up v3.Vec, z float64) v3.Vec {
	return p.Sub(up.MulScalar(p.Dot(up) - z))
}

func (g *Geometry) makeWall(ti, n v3.Vec) WallPoint {
	up := g.WorldZ()
	bottom := g.BottomZ()
	to := ti.Add(n.MulScalar(g.cfg.WallThicknessOrDefault()))
	return WallPoint{
		Normal: n,
		Ti:     trsf.FromBasis(ti, n, up),
		To:     trsf.FromBasis(to, n, up),
		Bi:     trsf.FromBasis(dropTo(ti, up, bottom), n, up),
		Bo:     trsf.FromBasis(dropTo(to, up, bottom), n, up),
	}
}

func (g *Geometry) offsetWall(prev, cur, next v3.Vec, offset float64) WallPoint {
	n := g.outwardNormal(prev, cur, next)
	return g.makeWall(cur.Add(n.MulScalar(offset)), n)
}

// blockWall snaps the normal to the nearest world axis. Walls facing -X
// are pulled flush to BottomX.
func (g *Geometry) blockWall(prev, cur, next v3.Vec, offset float64) WallPoint {
	n := snapToAxis(g.outwardNormal(prev, cur, next))
	ti := cur.Add(n.MulScalar(offset))
	if n.X < 0 {
		ti.X = g.BottomX() - offset
	}
	return g.makeWall(ti, n)
}

func snapToAxis(n v3.Vec) v3.Vec {
	if math.Abs(n.X) >= math.Abs(n.Y) {
		return v3.Vec{X: math.Copysign(1, n.X)}
	}
	return v3.Vec{Y: math.Copysign(1, n.Y)}
}

// ScrewInset is the distance from the inner wall to a screw or board
// mounting point in mm.
const ScrewInset = 4.0

// position returns a mounting frame just inside the bottom of wall w, with
// local X pointing into the case and local Z along up.
func position(w WallPoint, up v3.Vec) trsf.Trsf {
	inward, ok := trsf.Normalize(trsf.Reject(w.Normal, up))
	if !ok {
		inward = w.Normal
	}
	inward = inward.MulScalar(-1)
	return trsf.FromBasis(w.Bi.Origin().Add(inward.MulScalar(ScrewInset)), inward, up)
}

// horizontal returns the distance between a and b ignoring the up axis.
func horizontal(a, b, up v3.Vec) float64 {
	return trsf.Reject(a.Sub(b), up).Length()
}
