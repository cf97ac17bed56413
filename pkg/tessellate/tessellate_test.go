package tessellate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/hadan/pkg/kernel"
	"github.com/chazu/hadan/pkg/kernel/sdfx"
	"github.com/chazu/hadan/pkg/scene"
	"github.com/chazu/hadan/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New(16)
}

// boundsNear checks mesh bounds against want within tol.
func boundsNear(t *testing.T, m *kernel.Mesh, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	min, max := m.Bounds()
	for i := 0; i < 3; i++ {
		if math.Abs(float64(min[i])-wantMin[i]) > tol {
			t.Errorf("min[%d] = %f, want ~%f", i, min[i], wantMin[i])
		}
		if math.Abs(float64(max[i])-wantMax[i]) > tol {
			t.Errorf("max[%d] = %f, want ~%f", i, max[i], wantMax[i])
		}
	}
}

func TestSingleBox(t *testing.T) {
	s := scene.New()
	s.AddMeshTransform("cube1", scene.Vec3{X: 10}, scene.MeshData{Primitive: scene.PrimBox, Size: scene.Vec3{X: 2, Y: 2, Z: 2}})

	m, err := tessellate.Mesh(s, newKernel(), "cube1")
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if m.Name != "cube1Shape" {
		t.Errorf("mesh name = %q, want cube1Shape", m.Name)
	}
	boundsNear(t, m, [3]float64{9, -1, -1}, [3]float64{11, 1, 1}, 0.3)
}

func TestNestedTransforms(t *testing.T) {
	s := scene.New()
	s.AddTransform("rig", scene.TransformData{Translate: scene.Vec3{Z: 5}, Scale: scene.Vec3{X: 2, Y: 2, Z: 2}})
	ball := s.AddMeshTransform("ball", scene.Vec3{X: 3}, scene.MeshData{Primitive: scene.PrimSphere, Radius: 1})
	if err := s.Attach(s.Lookup("rig").ID, ball.ID); err != nil {
		t.Fatal(err)
	}

	m, err := tessellate.Mesh(s, newKernel(), "ball")
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	// Sphere of radius 1 at x=3, scaled by 2 about the rig origin, lifted by 5.
	boundsNear(t, m, [3]float64{4, -2, 3}, [3]float64{8, 2, 7}, 0.5)

	// World position from the scene agrees with the tessellated center.
	pos, err := s.WorldPosition("ball")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pos.X-6) > 1e-9 || math.Abs(pos.Z-5) > 1e-9 {
		t.Errorf("WorldPosition(ball) = %v, want (6,0,5)", pos)
	}
}

func TestRotatedCylinder(t *testing.T) {
	s := scene.New()
	s.AddTransform("post", scene.TransformData{Rotate: scene.Vec3{X: 90}})
	_, err := s.AddShape("post", "postShape", scene.KindMesh, scene.MeshData{Primitive: scene.PrimCylinder, Radius: 1, Height: 10})
	if err != nil {
		t.Fatal(err)
	}

	m, err := tessellate.Mesh(s, newKernel(), "post")
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	// Rotating about X turns the Z axis into Y.
	min, max := m.Bounds()
	if ext := float64(max[1] - min[1]); math.Abs(ext-10) > 1 {
		t.Errorf("Y extent = %f, want ~10", ext)
	}
	if ext := float64(max[2] - min[2]); math.Abs(ext-2) > 0.5 {
		t.Errorf("Z extent = %f, want ~2", ext)
	}
}

func TestMeshErrors(t *testing.T) {
	s := scene.New()
	s.AddLocator("locA", scene.Vec3{})
	s.AddMeshTransform("flat", scene.Vec3{}, scene.MeshData{Primitive: scene.PrimBox, Size: scene.Vec3{X: 1, Y: 0, Z: 1}})
	k := newKernel()

	if _, err := tessellate.Mesh(s, k, "missing"); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if _, err := tessellate.Mesh(s, k, "locA"); !errors.Is(err, tessellate.ErrNoMesh) {
		t.Errorf("locator: err = %v, want ErrNoMesh", err)
	}
	if _, err := tessellate.Mesh(s, k, "flat"); err == nil {
		t.Error("degenerate box should fail")
	}
}

func TestMeshDoesNotMutateScene(t *testing.T) {
	s := scene.New()
	s.AddMeshTransform("cube1", scene.Vec3{X: 1}, scene.MeshData{Primitive: scene.PrimBox, Size: scene.Vec3{X: 1, Y: 1, Z: 1}})
	before := s.NodeCount()
	roots := len(s.Roots)

	if _, err := tessellate.Mesh(s, newKernel(), "cube1"); err != nil {
		t.Fatal(err)
	}
	if s.NodeCount() != before || len(s.Roots) != roots {
		t.Error("tessellation must not modify the scene")
	}
}
