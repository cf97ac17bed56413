package script

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/hadan/pkg/scene"
)

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *scene.Scene {
	t.Helper()
	s, evalErrs, err := NewEvaluator(0).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if s == nil {
		t.Fatal("expected non-nil scene")
	}
	return s
}

// evalErrors evaluates source expecting non-fatal errors and returns them
// joined.
func evalErrors(t *testing.T, source string) string {
	t.Helper()
	s, evalErrs, err := NewEvaluator(0).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil scene")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	msgs := make([]string, len(evalErrs))
	for i, e := range evalErrs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

const shatterSource = `
;; a cube to break and two fracture points
(box "cube1" :size (vec3 2 2 2))
(locator "locA" :at (vec3 1 2 3))
(locator "locB" :at (vec3 4 5 6))

(def rig-height 5)
(transform "rig" :at (vec3 10 0 rig-height) :rotate (vec3 0 0 90)
  (locator "locC" :at (vec3 1 0 0)))

(sphere "rock" :radius 1.5 :at (vec3 -3 0 0))
(cylinder "post" :radius 0.5 :height 4 :scale (vec3 1 1 2))
(select "cube1")
`

func TestShatterScene(t *testing.T) {
	s := mustEval(t, shatterSource)

	if got := s.ListSelected(scene.KindTransform); !slices.Equal(got, []string{"cube1"}) {
		t.Errorf("selection = %v, want [cube1]", got)
	}
	for _, name := range []string{"cube1", "rock", "post"} {
		if !s.MeshChildExists(name) {
			t.Errorf("%s should own a mesh", name)
		}
	}
	if s.MeshChildExists("locA") {
		t.Error("locA should not own a mesh")
	}

	cube, _ := s.MeshChild("cube1")
	md := cube.Data.(scene.MeshData)
	if md.Primitive != scene.PrimBox || md.Size != (scene.Vec3{X: 2, Y: 2, Z: 2}) {
		t.Errorf("cube1 mesh = %+v", md)
	}

	tests := []struct {
		name string
		want scene.Vec3
	}{
		{"locA", scene.Vec3{X: 1, Y: 2, Z: 3}},
		{"locB", scene.Vec3{X: 4, Y: 5, Z: 6}},
		{"locC", scene.Vec3{X: 10, Y: 1, Z: 5}},
		{"rock", scene.Vec3{X: -3}},
	}
	for _, tt := range tests {
		got, err := s.WorldPosition(tt.name)
		if err != nil {
			t.Fatalf("WorldPosition(%s): %v", tt.name, err)
		}
		if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 || math.Abs(got.Z-tt.want.Z) > 1e-9 {
			t.Errorf("WorldPosition(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if len(s.Roots) != 6 {
		t.Errorf("roots = %d, want 6 (locC is under rig)", len(s.Roots))
	}
}

func TestBoxDefaultsToUnitSize(t *testing.T) {
	s := mustEval(t, `(box "b")`)
	mesh, ok := s.MeshChild("b")
	if !ok {
		t.Fatal("expected mesh")
	}
	if got := mesh.Data.(scene.MeshData).Size; got != scene.One {
		t.Errorf("size = %v, want unit", got)
	}
}

func TestRefAndReparent(t *testing.T) {
	s := mustEval(t, `
(locator "tip" :at (vec3 1 0 0))
(transform "arm" :at (vec3 0 0 2) (ref "tip"))
(select (ref "arm") "tip")
`)
	pos, err := s.WorldPosition("tip")
	if err != nil {
		t.Fatal(err)
	}
	if pos != (scene.Vec3{X: 1, Z: 2}) {
		t.Errorf("tip = %v, want (1,0,2)", pos)
	}
	if got := s.ListSelected(scene.KindTransform); !slices.Equal(got, []string{"arm", "tip"}) {
		t.Errorf("selection = %v", got)
	}
}

func TestDeleteBuiltin(t *testing.T) {
	s := mustEval(t, `
(locator "locA")
(locator "locB")
(select "locA" "locB")
(delete "locB")
`)
	if s.Exists("locB") || s.Exists("locBShape") {
		t.Error("locB should be deleted")
	}
	if got := s.ListSelected(scene.KindTransform); !slices.Equal(got, []string{"locA"}) {
		t.Errorf("selection = %v", got)
	}
}

func TestSelectEmptyClears(t *testing.T) {
	s := mustEval(t, `(box "b") (select "b") (select)`)
	if got := s.ListSelected(scene.KindTransform); len(got) != 0 {
		t.Errorf("selection = %v, want empty", got)
	}
}

func TestVec3(t *testing.T) {
	s := mustEval(t, `(def p (vec3 1.5 -2 3)) (locator "l" :at p)`)
	pos, _ := s.WorldPosition("l")
	if pos != (scene.Vec3{X: 1.5, Y: -2, Z: 3}) {
		t.Errorf("pos = %v", pos)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"vec3 type", `(vec3 1 "a" 3)`, "vec3: y"},
		{"missing name", `(box :size (vec3 1 1 1))`, "requires a name"},
		{"duplicate name", `(box "a") (locator "a")`, "already in use"},
		{"name clashes with shape", `(box "a") (locator "aShape")`, "already in use"},
		{"unknown keyword", `(box "a" :radius 2)`, "unknown keyword :radius"},
		{"sphere needs radius", `(sphere "s")`, "missing :radius"},
		{"cylinder needs height", `(cylinder "c" :radius 1)`, "missing :height"},
		{"bad at", `(locator "l" :at 5)`, "expected vec3"},
		{"ref missing", `(ref "ghost")`, "no object named"},
		{"select missing", `(select "ghost")`, "not found"},
		{"delete missing", `(delete "ghost")`, "not found"},
		{"transform child type", `(transform "t" 5)`, "expected object"},
		{"keyword as name", `(ref :cube)`, "got keyword"},
		{"degenerate mesh", `(sphere "s" :radius 0)`, "non-positive sphere dimensions"},
		{"zero scale", `(box "b" :scale (vec3 0 0 0))`, "scale: components must be non-zero"},
		{"flat scale", `(transform "t" :scale (vec3 1 0 1))`, "scale: components must be non-zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalErrors(t, tt.source)
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("errors %q do not mention %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	ev := NewEvaluator(0)
	var first []string
	for i := 0; i < 3; i++ {
		s, evalErrs, err := ev.Evaluate(shatterSource)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		var ids []string
		for _, id := range s.Roots {
			ids = append(ids, string(id))
		}
		if first == nil {
			first = ids
		} else if !slices.Equal(first, ids) {
			t.Errorf("iteration %d: roots differ", i)
		}
	}
}
