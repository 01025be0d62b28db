package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/layout"
)

// Board slot names.
const (
	SlotTopLeft     = "topLeft"
	SlotTopRight    = "topRight"
	SlotBottomLeft  = "bottomLeft"
	SlotBottomRight = "bottomRight"
)

// BoardIndices maps a board slot to the wall index it mounts on.
type BoardIndices map[string]int

// selectedSlots are the board slots that get mounting points, in the order
// they claim walls.
var selectedSlots = []string{SlotTopLeft, SlotTopRight, SlotBottomLeft}

// slotOffset returns the slot corner in connector-local coordinates. The
// connector frame's +X runs along the wall toward the board's left edge and
// +Y into the case.
func slotOffset(slot string, b layout.BoardSize) v3.Vec {
	hw := b.Width / 2
	switch slot {
	case SlotTopLeft:
		return v3.Vec{X: hw}
	case SlotTopRight:
		return v3.Vec{X: -hw}
	case SlotBottomLeft:
		return v3.Vec{X: hw, Y: b.Length}
	default:
		return v3.Vec{X: -hw, Y: b.Length}
	}
}

func (g *Geometry) boardIndices() (BoardIndices, error) {
	walls, err := g.WallPoints(0)
	if err != nil {
		return nil, err
	}
	conn, err := g.ConnectorOrigin()
	if err != nil {
		return nil, err
	}
	board, _ := layout.Board(g.cfg.Microcontroller)
	up := g.WorldZ()

	used := make(map[int]bool)
	out := make(BoardIndices, len(selectedSlots))
	for _, slot := range selectedSlots {
		target := conn.Apply(slotOffset(slot, board))
		best, bestDist := -1, math.Inf(1)
		for i, w := range walls {
			if used[i] {
				continue
			}
			if d := horizontal(w.Bi.Origin(), target, up); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out[slot] = best
	}
	return out, nil
}
