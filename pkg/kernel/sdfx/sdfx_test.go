package sdfx

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cuttlecase/pkg/trsf"
)

// testCells keeps marching cubes fast in tests.
const testCells = 40

func checkBox(t *testing.T, gotMin, gotMax, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(gotMin[i]-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, gotMin[i], wantMin[i])
		}
		if math.Abs(gotMax[i]-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, gotMax[i], wantMax[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := NewWithCells(testCells)
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestBoxMinimumCornerAtOrigin(t *testing.T) {
	k := New()
	min, max := k.Box(100, 50, 25).BoundingBox()
	checkBox(t, min, max, [3]float64{0, 0, 0}, [3]float64{100, 50, 25}, 0.01)
}

func TestSphere(t *testing.T) {
	k := NewWithCells(testCells)
	s := k.Sphere(17.5)
	min, max := s.BoundingBox()
	checkBox(t, min, max, [3]float64{-17.5, -17.5, -17.5}, [3]float64{17.5, 17.5, 17.5}, 0.01)

	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	lo, hi := mesh.Bounds()
	if math.Abs(hi.Z-17.5) > 1 || math.Abs(lo.Z+17.5) > 1 {
		t.Errorf("sphere mesh z extent = [%f, %f], expected ~[-17.5, 17.5]", lo.Z, hi.Z)
	}
}

func TestCylinderDifference(t *testing.T) {
	k := NewWithCells(testCells)

	boss := k.Cylinder(6, 4)
	bossMesh, err := k.ToMesh(boss)
	if err != nil {
		t.Fatalf("ToMesh(boss) failed: %v", err)
	}

	hollow := k.Difference(boss, k.Cylinder(8, 1.5))
	hollowMesh, err := k.ToMesh(hollow)
	if err != nil {
		t.Fatalf("ToMesh(hollow) failed: %v", err)
	}
	// A boss with a hole should have more triangles than a solid one.
	if hollowMesh.TriangleCount() <= bossMesh.TriangleCount() {
		t.Fatalf("hollow boss (%d triangles) should have more triangles than solid boss (%d triangles)",
			hollowMesh.TriangleCount(), bossMesh.TriangleCount())
	}
}

func TestUnion(t *testing.T) {
	k := NewWithCells(testCells)
	a := k.Box(50, 50, 50)
	b := k.Place(k.Box(50, 50, 50), trsf.At(v3.Vec{X: 30}))
	min, max := k.Union(a, b).BoundingBox()
	checkBox(t, min, max, [3]float64{0, 0, 0}, [3]float64{80, 50, 50}, 0.01)
}

func TestPlace(t *testing.T) {
	k := New()
	box := k.Box(100, 10, 10)

	// A long box along X rotated 90 degrees about Z runs along +Y instead.
	placed := k.Place(box, trsf.At(v3.Vec{X: 100, Y: 200, Z: 300}).RotateLocal(90, trsf.UnitZ))
	min, max := placed.BoundingBox()

	const tol = 0.5
	checkBox(t, min, max, [3]float64{90, 200, 300}, [3]float64{100, 300, 310}, tol)
}
