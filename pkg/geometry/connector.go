package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/logging"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Connector cutout clearances in mm.
const (
	ConnectorMargin = 2.0 // wall kept on each side of the cutout
	ConnectorHeight = 5.0 // minimum inner wall height
)

// innerSurface is the inner face of the wall between loop positions i and
// i+1.
type innerSurface struct {
	start, end v3.Vec
	length     float64
	height     float64
	normal     v3.Vec // outward
}

func (g *Geometry) innerSurfaces(walls []WallPoint) []innerSurface {
	up := g.WorldZ()
	out := make([]innerSurface, len(walls))
	for i, w := range walls {
		next := walls[(i+1)%len(walls)]
		a, b := w.Bi.Origin(), next.Bi.Origin()
		n, ok := edgeNormal(b.Sub(a), up)
		if !ok {
			n = w.Normal
		}
		out[i] = innerSurface{
			start:  a,
			end:    b,
			length: horizontal(a, b, up),
			height: math.Min(w.Ti.Origin().Sub(a).Dot(up), next.Ti.Origin().Sub(b).Dot(up)),
			normal: n,
		}
	}
	return out
}

// requiredConnectorLength is the wall length a connector wall must offer.
// With a board fitted, both top board slots hang from the connector wall,
// so the wall must also fit the board.
func (g *Geometry) requiredConnectorLength() float64 {
	need := g.cfg.ConnectorWidthOrDefault() + 2*ConnectorMargin
	if g.cfg.Microcontroller != "" {
		b, _ := layout.Board(g.cfg.Microcontroller)
		need = math.Max(need, b.Width+2*ConnectorMargin)
	}
	return need
}

func (g *Geometry) connectorIndex() (int, error) {
	walls, err := g.WallPoints(0)
	if err != nil {
		return 0, err
	}
	if !g.cfg.AutoConnector() {
		return g.cfg.ConnectorIndex % len(walls), nil
	}

	surfaces := g.innerSurfaces(walls)
	need := g.requiredConnectorLength()
	pick := func(strict bool) int {
		best := -1
		var bestFacing, bestLeft float64
		for i, s := range surfaces {
			if strict && (s.length < need || s.height < ConnectorHeight) {
				continue
			}
			facing := s.normal.Dot(g.WorldY())
			left := trsf.Lerp(s.start, s.end, 0.5).Dot(g.WorldX())
			if best < 0 || facing > bestFacing+1e-6 ||
				(math.Abs(facing-bestFacing) <= 1e-6 && left < bestLeft) {
				best, bestFacing, bestLeft = i, facing, left
			}
		}
		return best
	}
	i := pick(true)
	if i < 0 {
		g.log.Warn("no wall fits the connector, using the best facing wall",
			logging.Float64("required_length", need))
		i = pick(false)
	}
	return i, nil
}

// connectorOrigin places the cutout at the middle of the connector wall's
// inner bottom edge, local X along the wall and local Y into the case.
func (g *Geometry) connectorOrigin() (trsf.Trsf, error) {
	walls, err := g.WallPoints(0)
	if err != nil {
		return trsf.Trsf{}, err
	}
	i, err := g.ConnectorIndex()
	if err != nil {
		return trsf.Trsf{}, err
	}
	s := g.innerSurfaces(walls)[i]
	up := g.WorldZ()
	along := s.end.Sub(s.start)
	if along.Cross(up).Dot(s.normal) < 0 {
		along = along.MulScalar(-1)
	}
	return trsf.FromBasis(trsf.Lerp(s.start, s.end, 0.5), along, up), nil
}
