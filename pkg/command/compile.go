package command

import (
	"errors"
	"fmt"

	"github.com/chazu/hadan/pkg/params"
	"github.com/chazu/hadan/pkg/scene"
)

var (
	// ErrNoValidMeshSelected means the selection is not exactly one
	// transform owning a mesh shape.
	ErrNoValidMeshSelected = errors.New("no valid mesh selected")

	// ErrObjectNotFound is what SceneQuery.WorldPosition reports for names
	// missing from the scene.
	ErrObjectNotFound = scene.ErrNotFound
)

// CompileError describes why no command was produced.
type CompileError struct {
	Selected []string // transforms selected at compile time
	Err      error
}

func (e *CompileError) Error() string {
	switch len(e.Selected) {
	case 0:
		return fmt.Sprintf("command: %v: nothing selected", e.Err)
	case 1:
		return fmt.Sprintf("command: %v: %q has no mesh", e.Err, e.Selected[0])
	default:
		return fmt.Sprintf("command: %v: %d objects selected, want 1", e.Err, len(e.Selected))
	}
}

func (e *CompileError) Unwrap() error { return e.Err }

// SceneQuery is the read-only view of the host scene the compiler needs.
type SceneQuery interface {
	ListSelected(kind scene.Kind) []string
	WorldPosition(name string) (scene.Vec3, error)
	MeshChildExists(name string) bool
}

// Compile maps the selection, p and the ordered position names to a
// command. Position names that no longer resolve are skipped and listed in
// Command.Dropped. Compile reads p and positions but never changes them.
func Compile(q SceneQuery, p *params.Set, positions []string) (*Command, error) {
	selected := q.ListSelected(scene.KindTransform)
	if len(selected) != 1 || !q.MeshChildExists(selected[0]) {
		return nil, &CompileError{Selected: selected, Err: ErrNoValidMeshSelected}
	}
	mesh := selected[0]

	b := NewBuilder(CommandName).Str(FlagMesh, mesh)
	writeFracture(b, p.Active())

	opts := p.Options()
	b.Str(FlagSlicer, p.Slicer().String()).
		Int(FlagSeed, opts.Seed).
		Float(FlagSmoothing, opts.SmoothingAngle).
		Float(FlagMinBezier, opts.MinBezierDistance).
		Bool(FlagMultithreaded, opts.Multithreaded)

	var dropped []string
	for _, name := range positions {
		pos, err := q.WorldPosition(name)
		if errors.Is(err, ErrObjectNotFound) {
			dropped = append(dropped, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("command: resolve position %q: %w", name, err)
		}
		b.Point(pos)
	}

	cmd := b.Build()
	cmd.Dropped = dropped
	return cmd, nil
}

// writeFracture emits the -ft block for the active variant.
func writeFracture(b *Builder, ft params.FractureType) {
	b.Str(FlagFractureType, ft.Kind().String())
	switch v := ft.(type) {
	case params.Uniform:
		b.Int(FlagCount, v.Count)
	case params.Cluster:
		b.Int(FlagCount, v.Count).
			Int(FlagPrimary, v.Primary).
			Int(FlagSecondary, v.Secondary).
			Float(FlagFlux, v.Flux)
	case params.Bezier:
		b.Int(FlagCount, v.Count).
			Int(FlagSamples, v.Samples).
			Float(FlagFlux, v.Flux)
	}
	b.OptFloat(FlagGap, ft.GapDistance())
}
