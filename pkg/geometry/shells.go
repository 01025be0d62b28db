package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// PlateHeight is the thickness of the bottom plate in mm.
const PlateHeight = 3.0

// shell holds the derivations a case variant may change. Implementations
// read other quantities through the Geometry so that overrides are seen by
// the shared code.
type shell interface {
	kind() layout.ShellKind
	worldZ() v3.Vec
	bottomZ(g *Geometry) float64
	floorZ(g *Geometry) (float64, error)
	wallPoints(g *Geometry, offset float64) ([]WallPoint, error)
	justScrewIndices(g *Geometry) ([]int, error)
}

type basicShell struct{}

func (basicShell) kind() layout.ShellKind { return layout.ShellBasic }

func (basicShell) worldZ() v3.Vec { return trsf.UnitZ }

func (basicShell) bottomZ(g *Geometry) float64 {
	return g.bottomByNormal(trsf.UnitZ)
}

func (basicShell) floorZ(g *Geometry) (float64, error) {
	return g.BottomZ() - PlateHeight, nil
}

func (basicShell) wallPoints(g *Geometry, offset float64) ([]WallPoint, error) {
	return g.buildWalls(offset, func(prev, cur, next v3.Vec) WallPoint {
		return g.offsetWall(prev, cur, next, offset)
	})
}

func (basicShell) justScrewIndices(g *Geometry) ([]int, error) {
	walls, err := g.WallPoints(0)
	if err != nil {
		return nil, err
	}
	conn, err := g.ConnectorOrigin()
	if err != nil {
		return nil, err
	}
	board, err := g.BoardIndices()
	if err != nil {
		return nil, err
	}
	var seeds, reserved []int
	for _, slot := range g.BoardScrewSlots() {
		if i, ok := board[slot]; ok {
			seeds = append(seeds, i)
		}
	}
	for _, i := range board {
		reserved = append(reserved, i)
	}
	return g.selectScrews(walls, &conn, seeds, reserved, g.WorldZ()), nil
}

// blockShell squares the walls off to the world axes and relies on board
// screws alone.
type blockShell struct {
	basic basicShell
}

func (blockShell) kind() layout.ShellKind { return layout.ShellBlock }

func (b blockShell) worldZ() v3.Vec { return b.basic.worldZ() }

func (b blockShell) bottomZ(g *Geometry) float64 { return b.basic.bottomZ(g) }

func (b blockShell) floorZ(g *Geometry) (float64, error) { return b.basic.floorZ(g) }

func (blockShell) wallPoints(g *Geometry, offset float64) ([]WallPoint, error) {
	return g.buildWalls(offset, func(prev, cur, next v3.Vec) WallPoint {
		return g.blockWall(prev, cur, next, offset)
	})
}

func (blockShell) justScrewIndices(*Geometry) ([]int, error) { return []int{}, nil }

// tiltShell raises the plate at an angle over a separate bottom shell.
type tiltShell struct {
	basic  basicShell
	params layout.TiltShell
}

func (tiltShell) kind() layout.ShellKind { return layout.ShellTilt }

func (t tiltShell) worldZ() v3.Vec {
	if t.params.Axis != nil {
		if z, ok := trsf.Normalize(*t.params.Axis); ok {
			return z
		}
	}
	s, c := math.Sincos(t.params.Angle * math.Pi / 180)
	return v3.Vec{X: s, Z: c}
}

func (tiltShell) bottomZ(g *Geometry) float64 {
	return g.bottomByNormal(g.WorldZ()) - g.cfg.VerticalClearance
}

// floorZ sits below the lowest outer wall bottom. The tilted wall bottoms
// are not coplanar with the desk, so it is not derived from BottomZ.
func (t tiltShell) floorZ(g *Geometry) (float64, error) {
	walls, err := g.WallPoints(0)
	if err != nil {
		return 0, err
	}
	lo := math.Inf(1)
	for _, w := range walls {
		lo = math.Min(lo, w.Bo.Origin().Z)
	}
	return lo - t.params.RaiseBy - PlateHeight, nil
}

func (t tiltShell) wallPoints(g *Geometry, offset float64) ([]WallPoint, error) {
	return t.basic.wallPoints(g, offset)
}

func (t tiltShell) justScrewIndices(g *Geometry) ([]int, error) {
	return t.basic.justScrewIndices(g)
}
