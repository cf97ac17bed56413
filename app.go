package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/chazu/hadan/pkg/config"
	"github.com/chazu/hadan/pkg/host"
	"github.com/chazu/hadan/pkg/job"
	"github.com/chazu/hadan/pkg/kernel"
	"github.com/chazu/hadan/pkg/kernel/sdfx"
	"github.com/chazu/hadan/pkg/plugin"
	"github.com/chazu/hadan/pkg/scene"
	"github.com/chazu/hadan/pkg/script"
	"github.com/chazu/hadan/pkg/session"
	"github.com/chazu/hadan/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the front-end backend. Its exported methods return plain
// JSON-serializable values so that any UI binding can call them.
type App struct {
	ctx    context.Context
	logger *slog.Logger

	evaluator *script.Evaluator
	kernel    kernel.Kernel
	scene     *sceneRef
	host      *host.Local
	plugin    *plugin.Manager
	session   *session.Session
	notices   *session.Recorder
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Object   string    `json:"object"`
	Color    string    `json:"color"`
}

// ObjectData describes one transform in the scene outliner.
type ObjectData struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Mesh     bool       `json:"mesh"`
	Selected bool       `json:"selected"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of loading a scene script.
type EvalResult struct {
	Objects []ObjectData    `json:"objects"`
	Meshes  []MeshData      `json:"meshes"`
	Errors  []EvalErrorData `json:"errors"`
}

// NoticeData is a user-facing message.
type NoticeData struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// CompileResult is returned by Compile and Fracture. Command is empty when
// nothing could be compiled.
type CompileResult struct {
	Command   string       `json:"command"`
	Positions []string     `json:"positions"`
	Dropped   []string     `json:"dropped"`
	Executed  bool         `json:"executed"`
	Error     string       `json:"error,omitempty"`
	Notices   []NoticeData `json:"notices"`
}

// JobData summarizes a fracture job the engine host accepted.
type JobData struct {
	ID        string `json:"id"`
	Mesh      string `json:"mesh"`
	Points    int    `json:"points"`
	Triangles int    `json:"triangles"`
}

// NewApp wires the scene evaluator, geometry kernel, engine host, plugin
// manager and session from cfg. The scene starts empty.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		ctx:       context.Background(),
		logger:    logger,
		evaluator: script.NewEvaluator(cfg.ScriptTimeout),
		kernel:    sdfx.New(cfg.MeshCells),
		scene:     &sceneRef{s: scene.New()},
		notices:   &session.Recorder{},
	}
	a.host = host.NewLocal(host.Options{Scene: a.scene.s, Kernel: a.kernel, Logger: logger})
	a.plugin = plugin.NewManager(a.host, cfg.PluginOptions())
	a.session = session.New(session.Options{
		Scene:    a.scene,
		Executor: a.host,
		Plugin:   a.plugin,
		Notifier: session.Notifiers{a.notices, session.LogNotifier{Logger: logger}},
		Logger:   logger,
	})
	return a
}

// startup is called once the front end is up. The context is saved and
// used for every blocking call.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate takes Lisp source and, if it is valid, makes the resulting scene
// current. Parameters and positions survive a reload; positions naming
// objects that no longer exist are skipped at compile time.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Objects: []ObjectData{},
		Meshes:  []MeshData{},
		Errors:  []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a scene.
	s, evalErrs, err := a.evaluator.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.logger.Error("Scene evaluation failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Swap the scene in.
	a.scene.s = s
	a.host.SetScene(s)
	a.logger.Info("Scene loaded", "nodes", s.NodeCount(), "roots", len(s.Roots))

	// Step 4: Describe the transforms and tessellate their meshes.
	selected := s.ListSelected(scene.KindTransform)
	for _, name := range transformNames(s) {
		pos, err := s.WorldPosition(name)
		if err != nil {
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
			continue
		}
		obj := ObjectData{
			Name:     name,
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Mesh:     s.MeshChildExists(name),
			Selected: slices.Contains(selected, name),
		}
		result.Objects = append(result.Objects, obj)
		if !obj.Mesh {
			continue
		}

		m, err := tessellate.Mesh(s, a.kernel, name)
		if err != nil {
			a.logger.Warn("Tessellation failed", "object", name, "error", err)
			result.Errors = append(result.Errors, EvalErrorData{
				Message: fmt.Sprintf("tessellation of %q failed: %v", name, err),
			})
			continue
		}
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Object:   name,
			Color:    colorPalette[len(result.Meshes)%len(colorPalette)],
		})
	}
	return result
}

// transformNames lists transforms depth first, roots in creation order.
func transformNames(s *scene.Scene) []string {
	var names []string
	var walk func(n *scene.Node)
	walk = func(n *scene.Node) {
		if n.Kind != scene.KindTransform {
			return
		}
		names = append(names, n.Name)
		for _, c := range s.Children(n) {
			walk(c)
		}
	}
	for _, id := range s.Roots {
		if n := s.Get(id); n != nil {
			walk(n)
		}
	}
	return names
}

// Open loads the engine module. The app stays usable when it fails.
func (a *App) Open() error {
	return a.session.Open(a.ctx)
}

// Close unloads the engine module if it was loaded.
func (a *App) Close() error {
	return a.session.Close(a.ctx)
}

// Select replaces the scene selection.
func (a *App) Select(names ...string) error {
	return a.scene.s.Select(names...)
}

// AddSelected appends the selected transforms to the position list.
func (a *App) AddSelected() []string {
	return nonNil(a.session.AddSelected())
}

// RemovePosition removes name from the position list.
func (a *App) RemovePosition(name string) []string {
	a.session.RemovePosition(name)
	return a.Positions()
}

// MovePositionUp moves entry i one place towards the front.
func (a *App) MovePositionUp(i int) []string {
	a.session.MovePositionUp(i)
	return a.Positions()
}

// MovePositionDown moves entry i one place towards the back.
func (a *App) MovePositionDown(i int) []string {
	a.session.MovePositionDown(i)
	return a.Positions()
}

// ClearPositions empties the position list.
func (a *App) ClearPositions() {
	a.session.ClearPositions()
}

// Positions returns the position list in order.
func (a *App) Positions() []string {
	return nonNil(a.session.Positions())
}

// ApplyJob selects the job's objects, applies its parameters and appends
// its positions.
func (a *App) ApplyJob(j *job.Job) error {
	if len(j.Select) > 0 {
		if err := a.Select(j.Select...); err != nil {
			return fmt.Errorf("job %s: %w", j.Filename, err)
		}
	}
	if err := j.Apply(a.session.Params()); err != nil {
		return err
	}
	a.session.AddPositions(j.Positions...)
	return nil
}

// Compile builds the hadan command without running it.
func (a *App) Compile() CompileResult {
	cmd, err := a.session.Compile()
	result := a.result(err)
	if cmd != nil {
		result.Command = cmd.String()
		result.Dropped = nonNil(cmd.Dropped)
	}
	return result
}

// Fracture compiles the command and runs it in the engine host.
func (a *App) Fracture() CompileResult {
	cmd, err := a.session.Fracture(a.ctx)
	result := a.result(err)
	if cmd != nil {
		result.Command = cmd.String()
		result.Dropped = nonNil(cmd.Dropped)
	}
	result.Executed = err == nil
	return result
}

func (a *App) result(err error) CompileResult {
	result := CompileResult{
		Positions: a.Positions(),
		Dropped:   []string{},
		Notices:   a.drainNotices(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (a *App) drainNotices() []NoticeData {
	out := make([]NoticeData, 0, len(a.notices.Notices))
	for _, n := range a.notices.Notices {
		d := NoticeData{Level: n.Level.String(), Message: n.Message}
		if n.Err != nil {
			d.Error = n.Err.Error()
		}
		out = append(out, d)
	}
	a.notices.Reset()
	return out
}

// Jobs lists the fracture jobs the engine host accepted.
func (a *App) Jobs() []JobData {
	jobs := a.host.Jobs()
	out := make([]JobData, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, JobData{
			ID:        j.ID.String(),
			Mesh:      j.Invocation.MeshName,
			Points:    len(j.Invocation.Points),
			Triangles: j.Triangles,
		})
	}
	return out
}

// LastCommand returns the last successfully compiled command.
func (a *App) LastCommand() string {
	return a.session.LastCommand()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// sceneRef lets the session follow scene reloads.
type sceneRef struct {
	s *scene.Scene
}

func (r *sceneRef) ListSelected(kind scene.Kind) []string {
	return r.s.ListSelected(kind)
}

func (r *sceneRef) WorldPosition(name string) (scene.Vec3, error) {
	return r.s.WorldPosition(name)
}

func (r *sceneRef) MeshChildExists(name string) bool {
	return r.s.MeshChildExists(name)
}
