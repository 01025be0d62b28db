// Package tessellate turns a derived case geometry into preview triangle
// meshes using a geometry kernel. One mesh is produced per part: each
// keycap or trackball, each screw boss and the microcontroller outline.
// Tilted cases carry plate and bottom screw bosses in place of the plain
// ones.
package tessellate

import (
	"fmt"

	"github.com/chazu/cuttlecase/pkg/geometry"
	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

// Preview part dimensions in mm.
const (
	ScrewBossHeight = 5.0
	ScrewBossRadius = 3.5
	ScrewHoleRadius = 1.25 // M2 pilot
	BoardThickness  = 1.6
)

// part is one solid waiting to be meshed.
type part struct {
	name  string
	solid kernel.Solid
}

// Tessellate produces the preview meshes of a case. Key meshes come from
// placed, already loaded by the keycap cache, and are moved into case
// space; screw bosses and the board outline are built with k. The
// tessellator is read-only and never mutates the geometry.
func Tessellate(g *geometry.Geometry, placed []keycaps.Placed, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	meshes := keyMeshes(placed)

	parts, err := screwBosses(g, k)
	if err != nil {
		return nil, fmt.Errorf("tessellate: screw bosses: %w", err)
	}
	board, err := boardOutline(g, k)
	if err != nil {
		return nil, fmt.Errorf("tessellate: board: %w", err)
	}
	if board != nil {
		parts = append(parts, *board)
	}

	for _, p := range parts {
		mesh, err := k.ToMesh(p.solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", p.name, err)
		}
		mesh.Name = p.name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// keyMeshes maps each placed mesh through its key frame.
func keyMeshes(placed []keycaps.Placed) []*kernel.Mesh {
	meshes := make([]*kernel.Mesh, 0, len(placed))
	for _, p := range placed {
		m := p.Mesh.Transformed(p.Frame)
		m.Name = fmt.Sprintf("key-%d", p.Index)
		meshes = append(meshes, m)
	}
	return meshes
}

// screwBosses builds a drilled post standing on every screw position. A
// tilted case gets posts for its plate screws and for the screws holding
// its separate bottom shell.
func screwBosses(g *geometry.Geometry, k kernel.Kernel) ([]part, error) {
	if g.Kind() != layout.ShellTilt {
		positions, err := g.ScrewPositions()
		if err != nil {
			return nil, err
		}
		return bosses(k, "screw", positions), nil
	}
	plate, err := g.PlateScrewPositions()
	if err != nil {
		return nil, err
	}
	bottom, err := g.BottomScrewPositions()
	if err != nil {
		return nil, err
	}
	return append(bosses(k, "plate-screw", plate), bosses(k, "bottom-screw", bottom)...), nil
}

func bosses(k kernel.Kernel, prefix string, positions []trsf.Trsf) []part {
	parts := make([]part, 0, len(positions))
	for i, pos := range positions {
		boss := k.Difference(
			k.Cylinder(ScrewBossHeight, ScrewBossRadius),
			k.Cylinder(ScrewBossHeight+1, ScrewHoleRadius),
		)
		// Cylinders are centered; lift the boss so it sits on the position.
		parts = append(parts, part{
			name:  fmt.Sprintf("%s-%d", prefix, i),
			solid: k.Place(boss, pos.TranslateLocal(0, 0, ScrewBossHeight/2)),
		})
	}
	return parts
}

// boardOutline builds the microcontroller slab behind the connector, or
// nil when the case has no board.
func boardOutline(g *geometry.Geometry, k kernel.Kernel) (*part, error) {
	name := g.Config().Microcontroller
	if name == "" {
		return nil, nil
	}
	size, _ := layout.Board(name)
	conn, err := g.ConnectorOrigin()
	if err != nil {
		return nil, err
	}
	// Box has its minimum corner at the origin; center it on the connector
	// with its length running inward.
	frame := conn.TranslateLocal(-size.Width/2, 0, 0)
	return &part{name: "board", solid: k.Place(k.Box(size.Width, size.Length, BoardThickness), frame)}, nil
}
