package app

import (
	"errors"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/geometry"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Vec3 is a JSON-friendly vector.
type Vec3 [3]float64

func toVec3(v v3.Vec) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Frame is a JSON-friendly transform frame.
type Frame struct {
	Origin Vec3 `json:"origin"`
	X      Vec3 `json:"x"`
	Y      Vec3 `json:"y"`
	Z      Vec3 `json:"z"`
}

func toFrame(t trsf.Trsf) Frame {
	return Frame{
		Origin: toVec3(t.Origin()),
		X:      toVec3(t.XAxis()),
		Y:      toVec3(t.YAxis()),
		Z:      toVec3(t.ZAxis()),
	}
}

func toFrames(ts []trsf.Trsf) []Frame {
	out := make([]Frame, len(ts))
	for i, t := range ts {
		out[i] = toFrame(t)
	}
	return out
}

// WallData is one wall point of the case outline.
type WallData struct {
	Prev   int   `json:"prev"`
	Point  int   `json:"point"`
	Next   int   `json:"next"`
	Normal Vec3  `json:"normal"`
	Ti     Frame `json:"ti"`
	To     Frame `json:"to"`
	Bi     Frame `json:"bi"`
	Bo     Frame `json:"bo"`
}

// CaseData summarizes the derived geometry of a case.
type CaseData struct {
	Shell     string  `json:"shell"`
	WorldX    Vec3    `json:"worldX"`
	WorldY    Vec3    `json:"worldY"`
	WorldZ    Vec3    `json:"worldZ"`
	BottomZ   float64 `json:"bottomZ"`
	BottomX   float64 `json:"bottomX"`
	FloorZ    float64 `json:"floorZ"`
	KeyFrames []Frame `json:"keyFrames"`

	Boundary        []int            `json:"boundary"`
	Walls           []WallData       `json:"walls"`
	ConnectorIndex  int              `json:"connectorIndex"`
	ConnectorOrigin Frame            `json:"connectorOrigin"`
	BoardIndices    map[string]int   `json:"boardIndices,omitempty"`
	BoardPositions  map[string]Frame `json:"boardPositions,omitempty"`
	ScrewIndices    []int            `json:"screwIndices"`
	ScrewPositions  []Frame          `json:"screwPositions"`

	PlateScrewPositions  []Frame `json:"plateScrewPositions,omitempty"`
	BottomScrewIndices   []int   `json:"bottomScrewIndices,omitempty"`
	BottomScrewPositions []Frame `json:"bottomScrewPositions,omitempty"`
}

// Summarize reads every quantity of g into a CaseData. The error is the
// first derivation failure, typically geometry.ErrNoBoundary.
func Summarize(g *geometry.Geometry) (*CaseData, error) {
	c := &CaseData{
		Shell:     g.Kind().String(),
		WorldX:    toVec3(g.WorldX()),
		WorldY:    toVec3(g.WorldY()),
		WorldZ:    toVec3(g.WorldZ()),
		BottomZ:   g.BottomZ(),
		BottomX:   g.BottomX(),
		KeyFrames: toFrames(g.KeyFrames()),
	}

	var err error
	if c.Boundary, err = g.Boundary(); err != nil {
		return nil, err
	}
	walls, err := g.WallPoints(0)
	if err != nil {
		return nil, err
	}
	for _, w := range walls {
		c.Walls = append(c.Walls, WallData{
			Prev:   w.Prev,
			Point:  w.Point,
			Next:   w.Next,
			Normal: toVec3(w.Normal),
			Ti:     toFrame(w.Ti),
			To:     toFrame(w.To),
			Bi:     toFrame(w.Bi),
			Bo:     toFrame(w.Bo),
		})
	}
	if c.FloorZ, err = g.FloorZ(); err != nil {
		return nil, err
	}
	if c.ConnectorIndex, err = g.ConnectorIndex(); err != nil {
		return nil, err
	}
	conn, err := g.ConnectorOrigin()
	if err != nil {
		return nil, err
	}
	c.ConnectorOrigin = toFrame(conn)

	idx, err := g.BoardIndices()
	if err != nil {
		return nil, err
	}
	if len(idx) > 0 {
		c.BoardIndices = idx
		pos, err := g.BoardPositions()
		if err != nil {
			return nil, err
		}
		c.BoardPositions = make(map[string]Frame, len(pos))
		for slot, f := range pos {
			c.BoardPositions[slot] = toFrame(f)
		}
	}

	if c.ScrewIndices, err = g.ScrewIndices(); err != nil {
		return nil, err
	}
	screws, err := g.ScrewPositions()
	if err != nil {
		return nil, err
	}
	c.ScrewPositions = toFrames(screws)

	plate, err := g.PlateScrewPositions()
	if errors.Is(err, geometry.ErrNotTilted) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	c.PlateScrewPositions = toFrames(plate)
	if c.BottomScrewIndices, err = g.BottomScrewIndices(); err != nil {
		return nil, err
	}
	bottom, err := g.BottomScrewPositions()
	if err != nil {
		return nil, err
	}
	c.BottomScrewPositions = toFrames(bottom)
	return c, nil
}
