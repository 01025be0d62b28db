package tessellate_test

import (
	"fmt"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/boundary"
	"github.com/chazu/cuttlecase/pkg/geometry"
	"github.com/chazu/cuttlecase/pkg/kernel"
	"github.com/chazu/cuttlecase/pkg/kernel/sdfx"
	"github.com/chazu/cuttlecase/pkg/keycaps"
	"github.com/chazu/cuttlecase/pkg/layout"
	"github.com/chazu/cuttlecase/pkg/tessellate"
	"github.com/chazu/cuttlecase/pkg/trsf"
)

const pitch = 19.05

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(40)
}

// makeGrid creates a 2x2 MX grid ten units up.
func makeGrid(board string) *geometry.Geometry {
	return makeShellGrid(board, layout.BasicShell{})
}

func makeShellGrid(board string, shell layout.Shell) *geometry.Geometry {
	cfg := layout.New()
	cfg.Microcontroller = board
	cfg.Shell = shell
	for _, p := range [][2]float64{{0, 0}, {pitch, 0}, {0, pitch}, {pitch, pitch}} {
		cfg.Keys = append(cfg.Keys, layout.Key{
			Type:     layout.KeyMX,
			Position: trsf.At(v3.Vec{X: p[0], Y: p[1], Z: 10}),
		})
	}
	return geometry.New(cfg, boundary.HullSolver{})
}

// makePlaced puts a unit triangle on key i.
func makePlaced(i int, frame trsf.Trsf) keycaps.Placed {
	return keycaps.Placed{
		Index: i,
		Mesh: &kernel.Mesh{
			Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
			Indices:  []uint32{0, 1, 2},
			Name:     "dsa-1",
		},
		Frame: frame,
	}
}

func names(meshes []*kernel.Mesh) []string {
	var out []string
	for _, m := range meshes {
		out = append(out, m.Name)
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNilGeometry(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, nil, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
}

func TestKeysAndScrews(t *testing.T) {
	g := makeGrid("")
	frame := trsf.At(v3.Vec{X: 5, Y: 6, Z: 16.6})
	placed := []keycaps.Placed{makePlaced(2, frame)}

	meshes, err := tessellate.Tessellate(g, placed, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	want := []string{"key-2", "screw-0"}
	if got := names(meshes); !equalNames(got, want) {
		t.Fatalf("expected parts %v, got %v", want, got)
	}

	key := meshes[0]
	if v := key.Vertex(1); v.X != 6 || v.Y != 6 || math.Abs(v.Z-16.6) > 1e-5 {
		t.Errorf("key vertex not moved into case space: %v", v)
	}
	if placed[0].Mesh.Vertices[3] != 1 {
		t.Error("cached mesh was modified")
	}

	positions, err := g.ScrewPositions()
	if err != nil {
		t.Fatal(err)
	}
	min, max := meshes[1].Bounds()
	o := positions[0].Origin()
	if math.Abs(min.Z-o.Z) > 0.5 || math.Abs(max.Z-(o.Z+tessellate.ScrewBossHeight)) > 0.5 {
		t.Errorf("boss should stand on z=%.2f: got z range [%.2f, %.2f]", o.Z, min.Z, max.Z)
	}
	cx, cy := (min.X+max.X)/2, (min.Y+max.Y)/2
	if math.Abs(cx-o.X) > 0.5 || math.Abs(cy-o.Y) > 0.5 {
		t.Errorf("boss center (%.2f, %.2f) away from screw position %v", cx, cy, o)
	}
}

func TestBoardOutline(t *testing.T) {
	g := makeGrid("promicro")
	meshes, err := tessellate.Tessellate(g, nil, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	want := []string{"screw-0", "screw-1", "board"}
	if got := names(meshes); !equalNames(got, want) {
		t.Fatalf("expected parts %v, got %v", want, got)
	}

	conn, err := g.ConnectorOrigin()
	if err != nil {
		t.Fatal(err)
	}
	size, _ := layout.Board("promicro")
	frame := conn.TranslateLocal(-size.Width/2, 0, 0)
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, c := range []v3.Vec{
		{}, {X: size.Width}, {Y: size.Length}, {X: size.Width, Y: size.Length},
		{Z: tessellate.BoardThickness}, {X: size.Width, Y: size.Length, Z: tessellate.BoardThickness},
	} {
		p := frame.Apply(c)
		lo = v3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = v3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}

	min, max := meshes[2].Bounds()
	for _, axis := range []struct {
		name                   string
		gotLo, gotHi, wlo, whi float64
	}{
		{"x", min.X, max.X, lo.X, hi.X},
		{"y", min.Y, max.Y, lo.Y, hi.Y},
		{"z", min.Z, max.Z, lo.Z, hi.Z},
	} {
		if math.Abs(axis.gotLo-axis.wlo) > 1 || math.Abs(axis.gotHi-axis.whi) > 1 {
			t.Errorf("board %s range [%.2f, %.2f], want [%.2f, %.2f]",
				axis.name, axis.gotLo, axis.gotHi, axis.wlo, axis.whi)
		}
	}
}

func TestTiltScrewBosses(t *testing.T) {
	g := makeShellGrid("", layout.TiltShell{Angle: 10})
	meshes, err := tessellate.Tessellate(g, nil, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}

	plate, err := g.PlateScrewPositions()
	if err != nil {
		t.Fatal(err)
	}
	bottom, err := g.BottomScrewPositions()
	if err != nil {
		t.Fatal(err)
	}
	var want []string
	for i := range plate {
		want = append(want, fmt.Sprintf("plate-screw-%d", i))
	}
	for i := range bottom {
		want = append(want, fmt.Sprintf("bottom-screw-%d", i))
	}
	if len(bottom) == 0 {
		t.Fatal("expected bottom shell screws")
	}
	if got := names(meshes); !equalNames(got, want) {
		t.Fatalf("expected parts %v, got %v", want, got)
	}

	min, max := meshes[len(plate)].Bounds()
	o := bottom[0].Origin()
	if math.Abs(min.Z-o.Z) > 0.5 || math.Abs(max.Z-(o.Z+tessellate.ScrewBossHeight)) > 0.5 {
		t.Errorf("bottom boss should stand on z=%.2f: got z range [%.2f, %.2f]", o.Z, min.Z, max.Z)
	}
}

func TestBoundaryFailure(t *testing.T) {
	g := geometry.New(layout.New(), boundary.HullSolver{})
	_, err := tessellate.Tessellate(g, nil, newKernel())
	if err == nil {
		t.Fatal("expected error for a case without keys")
	}
}
