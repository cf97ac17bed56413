package main

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/chazu/hadan/pkg/job"
)

// ---------------------------------------------------------------------------
// 1. Empty results serialize as [] rather than null.
// ---------------------------------------------------------------------------

func TestE2EEmptySlicesAreNonNil(t *testing.T) {
	app := newTestApp(t, false)
	result := app.Evaluate("")
	if result.Objects == nil || result.Meshes == nil || result.Errors == nil {
		t.Fatal("EvalResult slices must be non-nil")
	}

	res := app.Compile()
	if res.Positions == nil || res.Dropped == nil || res.Notices == nil {
		t.Fatal("CompileResult slices must be non-nil")
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("unexpected null in %s", data)
	}
}

// ---------------------------------------------------------------------------
// 2. Selection problems: nothing, a locator, two meshes.
// ---------------------------------------------------------------------------

func TestE2ENoValidMeshSelected(t *testing.T) {
	tests := []struct {
		name string
		sel  []string
	}{
		{"nothing", nil},
		{"locator", []string{"locA"}},
		{"two meshes", []string{"cube1", "rock"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, false)
			loadExample(t, app)
			if err := app.Select(tt.sel...); err != nil {
				t.Fatal(err)
			}
			res := app.Compile()
			if res.Command != "" {
				t.Errorf("expected no command, got %q", res.Command)
			}
			if !strings.Contains(res.Error, "no valid mesh selected") {
				t.Errorf("error = %q", res.Error)
			}
			if len(res.Notices) != 1 || res.Notices[0].Level != "WARN" {
				t.Errorf("notices = %+v", res.Notices)
			}
			if app.LastCommand() != "" {
				t.Error("a failed compile must clear the last command")
			}
		})
	}
}

func TestE2ESelectUnknownObject(t *testing.T) {
	app := newTestApp(t, false)
	loadExample(t, app)
	if err := app.Select("ghost"); err == nil {
		t.Fatal("expected an error selecting a missing object")
	}

	j, err := job.Parse([]byte(`select = ["ghost"]`), "ghost.hcl")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.ApplyJob(j); err == nil {
		t.Fatal("expected ApplyJob to fail")
	}
}

// ---------------------------------------------------------------------------
// 3. Positions: ordering, duplicates, removal.
// ---------------------------------------------------------------------------

func TestE2EPositionEditing(t *testing.T) {
	app := newTestApp(t, false)
	loadExample(t, app)

	if err := app.Select("locB", "locA", "locB"); err != nil {
		t.Fatal(err)
	}
	if got := app.AddSelected(); strings.Join(got, ",") != "locB,locA" {
		t.Errorf("added = %v", got)
	}
	if got := app.AddSelected(); len(got) != 0 {
		t.Errorf("second add should be a no-op, added %v", got)
	}

	if got := app.MovePositionUp(1); strings.Join(got, ",") != "locA,locB" {
		t.Errorf("after move up = %v", got)
	}
	if got := app.MovePositionDown(1); strings.Join(got, ",") != "locA,locB" {
		t.Errorf("moving the last entry down should be a no-op, got %v", got)
	}
	if got := app.RemovePosition("ghost"); len(got) != 2 {
		t.Errorf("removing an absent name changed the list: %v", got)
	}
	if got := app.RemovePosition("locA"); strings.Join(got, ",") != "locB" {
		t.Errorf("after remove = %v", got)
	}

	if err := app.Select("cube1"); err != nil {
		t.Fatal(err)
	}
	res := app.Compile()
	if !strings.HasSuffix(res.Command, "-pnt 4.000000 5.000000 6.000000") {
		t.Errorf("command = %s", res.Command)
	}

	app.ClearPositions()
	if len(app.Positions()) != 0 {
		t.Error("positions should be empty after clear")
	}
}

// ---------------------------------------------------------------------------
// 4. Scene reload: parameters survive, stale positions are skipped.
// ---------------------------------------------------------------------------

func TestE2EReloadDropsStalePositions(t *testing.T) {
	app := newTestApp(t, true)
	loadExample(t, app)
	if err := app.Open(); err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	j, err := job.Load("examples/shatter.hcl")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.ApplyJob(j); err != nil {
		t.Fatal(err)
	}

	// The new scene keeps cube1 and locA but loses locB.
	result := app.Evaluate(`
(box "cube1" :size (vec3 2 2 2))
(locator "locA" :at (vec3 1 2 3))
(select "cube1")`)
	if len(result.Errors) > 0 {
		t.Fatalf("reload failed: %+v", result.Errors)
	}

	res := app.Fracture()
	if res.Error != "" {
		t.Fatalf("Fracture: %s", res.Error)
	}
	want := "hadan -mn cube1 -ft cluster -uc 10 -pc 3 -sc 4 -flp 12.500000 -st GTE -rs 42 -sa 30.000000 -mbd 50.000000 -mt true -pnt 1.000000 2.000000 3.000000"
	if res.Command != want {
		t.Errorf("command mismatch\n got: %s\nwant: %s", res.Command, want)
	}
	if strings.Join(res.Dropped, ",") != "locB" {
		t.Errorf("dropped = %v", res.Dropped)
	}
	if strings.Join(res.Positions, ",") != "locA,locB" {
		t.Errorf("compiling must not edit the position list, got %v", res.Positions)
	}
	if len(res.Notices) != 1 || res.Notices[0].Level != "WARN" {
		t.Errorf("expected one stale-position warning, got %+v", res.Notices)
	}
}

func TestE2EFailedReloadKeepsScene(t *testing.T) {
	app := newTestApp(t, false)
	loadExample(t, app)

	result := app.Evaluate(`(box "cube1") (box "cube1")`)
	if len(result.Errors) == 0 {
		t.Fatal("expected a duplicate name error")
	}

	// The example scene, with cube1 selected, is still current.
	if res := app.Compile(); res.Error != "" {
		t.Errorf("compile after failed reload: %s", res.Error)
	}
}

// ---------------------------------------------------------------------------
// 5. Scene script errors.
// ---------------------------------------------------------------------------

func TestE2EScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		source string
	}{
		{"missing paren", `(box "a"`},
		{"unknown keyword", `(box "a" :colour 3)`},
		{"negative radius", `(sphere "s" :radius -1)`},
		{"select missing", `(select "ghost")`},
		{"undefined symbol", `(box "a" :size nope)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, false)
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an eval error")
			}
			if result.Errors[0].Message == "" {
				t.Error("error should have a message")
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp(t, false)
	result := app.Evaluate(";; nothing here\n;; still nothing\n")
	if len(result.Errors) != 0 {
		t.Errorf("comments-only source should not error: %+v", result.Errors)
	}
	if len(result.Objects) != 0 {
		t.Errorf("expected no objects, got %d", len(result.Objects))
	}
}

// ---------------------------------------------------------------------------
// 6. Rapid evaluation: concurrent calls each get a result or a superseded
//    error, never a panic.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app := newTestApp(t, false)
	source := `(box "cube1" :size (vec3 1 1 1))`

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, errs, err := app.evaluator.Evaluate(source)
			if err == nil && len(errs) == 0 && s == nil {
				t.Errorf("evaluation %d returned no scene and no error", i)
			}
		}(i)
	}
	wg.Wait()

	// The app itself is not concurrent; a final sequential call must succeed.
	if r := app.Evaluate(source); len(r.Errors) != 0 {
		t.Errorf("final evaluation failed: %+v", r.Errors)
	}
}

// ---------------------------------------------------------------------------
// 7. Color palette wraps when there are more meshes than colors.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp(t, false)
	var b strings.Builder
	n := len(colorPalette) + 2
	for i := 0; i < n; i++ {
		b.WriteString(`(box "b`)
		b.WriteString(string(rune('a' + i)))
		b.WriteString(`" :size (vec3 1 1 1))`)
		b.WriteString("\n")
	}
	result := app.Evaluate(b.String())
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %+v", result.Errors)
	}
	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	if result.Meshes[len(colorPalette)].Color != colorPalette[0] {
		t.Errorf("palette should wrap: got %s", result.Meshes[len(colorPalette)].Color)
	}
}
