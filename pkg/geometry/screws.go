package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Screw placement limits in mm.
const (
	ConnectorKeepOut  = 15.0 // no screws this close to the connector
	MinScrewSpacing   = 20.0 // stop adding screws below this spacing
	perimeterPerScrew = 120.0
	minAutoScrews     = 3
	maxAutoScrews     = 8
)

// screwTarget returns the total number of screws to place on walls.
func (g *Geometry) screwTarget(walls []WallPoint, up v3.Vec) int {
	if g.cfg.ScrewCount > 0 {
		return g.cfg.ScrewCount
	}
	var perimeter float64
	for i, w := range walls {
		perimeter += horizontal(w.Bi.Origin(), walls[(i+1)%len(walls)].Bi.Origin(), up)
	}
	n := int(perimeter / perimeterPerScrew)
	return max(minAutoScrews, min(maxAutoScrews, n))
}

// selectScrews picks screw walls by farthest-point sampling. seeds are
// screws already placed, reserved walls are never chosen, and walls within
// ConnectorKeepOut of conn are skipped. Only the new indices are returned.
func (g *Geometry) selectScrews(walls []WallPoint, conn *trsf.Trsf, seeds, reserved []int, up v3.Vec) []int {
	skip := make(map[int]bool, len(seeds)+len(reserved))
	for _, i := range seeds {
		skip[i] = true
	}
	for _, i := range reserved {
		skip[i] = true
	}

	var candidates []int
	for i, w := range walls {
		if skip[i] {
			continue
		}
		if conn != nil && horizontal(w.Bi.Origin(), conn.Origin(), up) < ConnectorKeepOut {
			continue
		}
		candidates = append(candidates, i)
	}

	var centroid v3.Vec
	for _, w := range walls {
		centroid = centroid.Add(w.Bi.Origin())
	}
	centroid = centroid.MulScalar(1 / float64(len(walls)))

	chosen := append([]int(nil), seeds...)
	picked := []int{}
	target := g.screwTarget(walls, up)
	for len(chosen) < target && len(candidates) > 0 {
		best, bestDist := -1, -1.0
		for ci, i := range candidates {
			d := math.Inf(1)
			if len(chosen) == 0 {
				d = horizontal(walls[i].Bi.Origin(), centroid, up)
			}
			for _, j := range chosen {
				d = math.Min(d, horizontal(walls[i].Bi.Origin(), walls[j].Bi.Origin(), up))
			}
			if d > bestDist {
				best, bestDist = ci, d
			}
		}
		if len(chosen) > 0 && bestDist < MinScrewSpacing {
			break
		}
		i := candidates[best]
		chosen = append(chosen, i)
		picked = append(picked, i)
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return picked
}
