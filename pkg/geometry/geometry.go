package geometry

import (
	"errors"
	"fmt"
	"math"
	"sync"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/boundary"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/logging"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

var (
	// ErrNoBoundary is returned by every quantity that depends on the
	// boundary loop when the solver could not produce one.
	ErrNoBoundary = boundary.ErrNoBoundary

	// ErrNotTilted is returned by the tilt-only quantities on other shells.
	ErrNotTilted = errors.New("geometry: operation requires a tilt shell")
)

// Option configures a Geometry.
type Option func(*Geometry)

// WithLogger sets the logger used for degraded-input warnings.
func WithLogger(l logging.Logger) Option {
	return func(g *Geometry) { g.log = l }
}

// Geometry is the derived geometry of one case configuration. Every
// quantity is computed on first use and cached for the lifetime of the
// instance. A Geometry is safe for concurrent use. Returned slices and maps
// are shared and must not be modified.
type Geometry struct {
	cfg    *layout.Config
	solver boundary.Solver
	log    logging.Logger
	sh     shell

	keyFrames    memo[[]trsf.Trsf]
	keyFrames2D  memo[[]trsf.Trsf]
	critical     memo[[][]trsf.Trsf]
	critical2D   memo[[][]v2.Vec]
	loop         memo[[]int]
	bottomZ      memo[float64]
	floorZ       memo[float64]
	bottomX      memo[float64]
	connIndex    memo[int]
	connOrigin   memo[trsf.Trsf]
	boardIdx     memo[BoardIndices]
	boardPos     memo[map[string]trsf.Trsf]
	justScrews   memo[[]int]
	justScrewPos memo[[]trsf.Trsf]
	screwPos     memo[[]trsf.Trsf]
	plateScrews  memo[[]trsf.Trsf]
	bottomScrews memo[[]int]
	bottomPos    memo[[]trsf.Trsf]

	wallsMu sync.Mutex
	walls   map[float64]*memo[[]WallPoint]
}

// New returns the derived geometry for cfg. The shell variant is taken from
// cfg.Shell; solver orders critical points into the boundary loop.
func New(cfg *layout.Config, solver boundary.Solver, opts ...Option) *Geometry {
	g := &Geometry{
		cfg:    cfg,
		solver: solver,
		log:    logging.NewNopLogger(),
		walls:  make(map[float64]*memo[[]WallPoint]),
	}
	for _, o := range opts {
		o(g)
	}
	switch s := cfg.ShellOrDefault().(type) {
	case layout.BlockShell, *layout.BlockShell:
		g.sh = blockShell{}
	case layout.TiltShell:
		g.sh = tiltShell{params: s}
	case *layout.TiltShell:
		g.sh = tiltShell{params: *s}
	default:
		g.sh = basicShell{}
	}
	return g
}

// Config returns the configuration the geometry was derived from.
func (g *Geometry) Config() *layout.Config { return g.cfg }

// Kind returns the shell variant.
func (g *Geometry) Kind() layout.ShellKind { return g.sh.kind() }

// KeyFrames returns the placement frame of every key, in key order.
func (g *Geometry) KeyFrames() []trsf.Trsf {
	return g.keyFrames.value(func() []trsf.Trsf {
		out := make([]trsf.Trsf, len(g.cfg.Keys))
		for i, k := range g.cfg.Keys {
			out[i] = keyFrame(k)
		}
		return out
	})
}

// KeyFrames2D returns the key frames flattened onto the z=0 plane.
func (g *Geometry) KeyFrames2D() []trsf.Trsf {
	return g.keyFrames2D.value(func() []trsf.Trsf {
		frames := g.KeyFrames()
		out := make([]trsf.Trsf, len(frames))
		for i, f := range frames {
			out[i] = f.Flatten()
		}
		return out
	})
}

// CriticalPoints returns, per key, the frames of its boundary candidate
// points.
func (g *Geometry) CriticalPoints() [][]trsf.Trsf {
	return g.critical.value(func() [][]trsf.Trsf {
		return g.criticalPoints(g.KeyFrames(), true)
	})
}

// CriticalPoints2D returns the critical points of the flattened key frames.
func (g *Geometry) CriticalPoints2D() [][]v2.Vec {
	return g.critical2D.value(func() [][]v2.Vec {
		per := g.criticalPoints(g.KeyFrames2D(), false)
		out := make([][]v2.Vec, len(per))
		for i, pts := range per {
			out[i] = make([]v2.Vec, len(pts))
			for j, p := range pts {
				o := p.Origin()
				out[i][j] = v2.Vec{X: o.X, Y: o.Y}
			}
		}
		return out
	})
}

// WorldZ returns the case's up axis.
func (g *Geometry) WorldZ() v3.Vec { return g.sh.worldZ() }

// WorldX returns the unit X axis orthogonalized against WorldZ. When WorldZ
// is parallel to X any perpendicular axis is returned.
func (g *Geometry) WorldX() v3.Vec {
	return trsf.FromBasis(v3.Vec{}, trsf.UnitX, g.WorldZ()).XAxis()
}

// WorldY completes the right-handed world frame.
func (g *Geometry) WorldY() v3.Vec {
	return g.WorldZ().Cross(g.WorldX())
}

// Boundary returns the boundary loop as indices into the flattened critical
// points.
func (g *Geometry) Boundary() ([]int, error) {
	return g.loop.get(func() ([]int, error) {
		res, err := g.solver.Solve(g.CriticalPoints2D(), g.CriticalPoints(), g.KeyFrames(), g.BottomZ(), g.WorldZ(), boundary.Options{
			NoBadWalls:     true,
			ConstrainKeys:  true,
			NoKeyTriangles: true,
		})
		if err != nil {
			if errors.Is(err, ErrNoBoundary) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrNoBoundary, err)
		}
		n := len(boundary.Flatten(g.CriticalPoints()))
		if res == nil || len(res.Boundary) < 3 {
			return nil, fmt.Errorf("%w: loop has fewer than 3 points", ErrNoBoundary)
		}
		for _, i := range res.Boundary {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrNoBoundary, i, n)
			}
		}
		g.log.Debug("boundary solved", logging.Int("points", n), logging.Int("loop", len(res.Boundary)))
		return res.Boundary, nil
	})
}

// WallPoints returns one wall point per boundary loop position, with the
// inner wall surface pushed outward by offset. offset must be finite.
func (g *Geometry) WallPoints(offset float64) ([]WallPoint, error) {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return nil, fmt.Errorf("geometry: wall offset %v is not finite", offset)
	}
	g.wallsMu.Lock()
	m, ok := g.walls[offset]
	if !ok {
		m = new(memo[[]WallPoint])
		g.walls[offset] = m
	}
	g.wallsMu.Unlock()
	return m.get(func() ([]WallPoint, error) { return g.sh.wallPoints(g, offset) })
}

// BottomZ is the lowest point of the key footprints along WorldZ.
func (g *Geometry) BottomZ() float64 {
	return g.bottomZ.value(func() float64 { return g.sh.bottomZ(g) })
}

// FloorZ is the plane of the case's bottom face.
func (g *Geometry) FloorZ() (float64, error) {
	return g.floorZ.get(func() (float64, error) { return g.sh.floorZ(g) })
}

// BottomX is the most negative X reached by any key footprint.
func (g *Geometry) BottomX() float64 {
	return g.bottomX.value(func() float64 { return g.bottomByNormal(trsf.UnitX) })
}

// ConnectorIndex returns the wall index the connector cutout sits on.
func (g *Geometry) ConnectorIndex() (int, error) {
	return g.connIndex.get(g.connectorIndex)
}

// ConnectorOrigin returns the connector cutout frame.
func (g *Geometry) ConnectorOrigin() (trsf.Trsf, error) {
	return g.connOrigin.get(g.connectorOrigin)
}

// BoardIndices returns the wall index chosen for each board slot.
func (g *Geometry) BoardIndices() (BoardIndices, error) {
	return g.boardIdx.get(g.boardIndices)
}

// BoardPositions returns the mounting frame of each board slot.
func (g *Geometry) BoardPositions() (map[string]trsf.Trsf, error) {
	return g.boardPos.get(func() (map[string]trsf.Trsf, error) {
		idx, err := g.BoardIndices()
		if err != nil {
			return nil, err
		}
		walls, err := g.WallPoints(0)
		if err != nil {
			return nil, err
		}
		out := make(map[string]trsf.Trsf, len(idx))
		for slot, i := range idx {
			out[slot] = position(walls[i], g.WorldZ())
		}
		return out, nil
	})
}

// BoardScrewSlots returns the board slots that double as case screws.
func (g *Geometry) BoardScrewSlots() []string {
	if g.cfg.Microcontroller != "" {
		return []string{SlotTopLeft}
	}
	return nil
}

// JustScrewIndices returns the screw positions chosen independently of the
// board.
func (g *Geometry) JustScrewIndices() ([]int, error) {
	return g.justScrews.get(func() ([]int, error) { return g.sh.justScrewIndices(g) })
}

// ScrewIndices returns the board slots that are screws followed by the
// independent screw positions.
func (g *Geometry) ScrewIndices() ([]int, error) {
	idx, err := g.BoardIndices()
	if err != nil {
		return nil, err
	}
	just, err := g.JustScrewIndices()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, slot := range g.BoardScrewSlots() {
		if i, ok := idx[slot]; ok {
			out = append(out, i)
		}
	}
	return append(out, just...), nil
}

// ScrewPositions returns a frame per entry of ScrewIndices.
func (g *Geometry) ScrewPositions() ([]trsf.Trsf, error) {
	return g.screwPos.get(func() ([]trsf.Trsf, error) {
		boards, err := g.BoardPositions()
		if err != nil {
			return nil, err
		}
		just, err := g.justScrewPositions()
		if err != nil {
			return nil, err
		}
		var out []trsf.Trsf
		for _, slot := range g.BoardScrewSlots() {
			if p, ok := boards[slot]; ok {
				out = append(out, p)
			}
		}
		return append(out, just...), nil
	})
}

func (g *Geometry) justScrewPositions() ([]trsf.Trsf, error) {
	return g.justScrewPos.get(func() ([]trsf.Trsf, error) {
		return g.positions(g.JustScrewIndices, g.WorldZ())
	})
}

// positions converts wall indices to mounting frames along up.
func (g *Geometry) positions(indices func() ([]int, error), up v3.Vec) ([]trsf.Trsf, error) {
	idx, err := indices()
	if err != nil {
		return nil, err
	}
	walls, err := g.WallPoints(0)
	if err != nil {
		return nil, err
	}
	out := make([]trsf.Trsf, len(idx))
	for i, w := range idx {
		out[i] = position(walls[w], up)
	}
	return out, nil
}

// PlateScrewPositions returns the screws joining a tilted plate to its
// shell, driven along the negated up axis.
func (g *Geometry) PlateScrewPositions() ([]trsf.Trsf, error) {
	if _, ok := g.sh.(tiltShell); !ok {
		return nil, ErrNotTilted
	}
	return g.plateScrews.get(func() ([]trsf.Trsf, error) {
		return g.positions(g.JustScrewIndices, g.WorldZ().MulScalar(-1))
	})
}

// BottomScrewIndices returns the screws holding the separate bottom shell
// of a tilted case. They avoid every wall already used by ScrewIndices.
func (g *Geometry) BottomScrewIndices() ([]int, error) {
	if _, ok := g.sh.(tiltShell); !ok {
		return nil, ErrNotTilted
	}
	return g.bottomScrews.get(func() ([]int, error) {
		walls, err := g.WallPoints(0)
		if err != nil {
			return nil, err
		}
		reserved, err := g.ScrewIndices()
		if err != nil {
			return nil, err
		}
		return g.selectScrews(walls, nil, nil, reserved, trsf.UnitZ), nil
	})
}

// BottomScrewPositions returns the bottom-shell screws standing on the
// floor plate.
func (g *Geometry) BottomScrewPositions() ([]trsf.Trsf, error) {
	if _, ok := g.sh.(tiltShell); !ok {
		return nil, ErrNotTilted
	}
	return g.bottomPos.get(func() ([]trsf.Trsf, error) {
		floor, err := g.FloorZ()
		if err != nil {
			return nil, err
		}
		pos, err := g.positions(g.BottomScrewIndices, trsf.UnitZ)
		if err != nil {
			return nil, err
		}
		for i, p := range pos {
			pos[i] = p.Translate(0, 0, floor+PlateHeight-p.Origin().Z)
		}
		return pos, nil
	})
}
