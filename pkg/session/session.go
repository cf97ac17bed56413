// Package session holds the state of one front-end session: the fracture
// parameters, the seed position list, the engine module lifecycle and the
// last compiled command. Everything a session needs is passed in through
// Options; there is no package-level state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/hadan/pkg/command"
	"github.com/chazu/hadan/pkg/ctxlog"
	"github.com/chazu/hadan/pkg/params"
	"github.com/chazu/hadan/pkg/plugin"
	"github.com/chazu/hadan/pkg/positions"
	"github.com/chazu/hadan/pkg/scene"
)

// Executor runs a compiled command in the engine host.
type Executor interface {
	Execute(ctx context.Context, line string) error
}

// Lifecycle loads and unloads the engine module.
type Lifecycle interface {
	Load(ctx context.Context) (plugin.Outcome, error)
	Unload(ctx context.Context) (plugin.Outcome, error)
}

// ErrNoExecutor is returned by Fracture when the session has no host.
var ErrNoExecutor = errors.New("session has no executor")

// Options configures a Session. Scene is required.
type Options struct {
	Scene    command.SceneQuery
	Executor Executor
	Plugin   Lifecycle
	Notifier Notifier     // LogNotifier over Logger when nil
	Logger   *slog.Logger // slog.Default when nil
}

// Session is one front-end session. It is not safe for concurrent use.
type Session struct {
	ID uuid.UUID

	scene     command.SceneQuery
	exec      Executor
	plugin    Lifecycle
	notifier  Notifier
	logger    *slog.Logger
	params    *params.Set
	positions *positions.Registry
	last      *command.Command
}

// New creates a session with default parameters and no positions.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	logger = logger.With("session", id.String())
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Session{
		ID:        id,
		scene:     opts.Scene,
		exec:      opts.Executor,
		plugin:    opts.Plugin,
		notifier:  notifier,
		logger:    logger,
		params:    params.New(),
		positions: positions.New(),
	}
}

func (s *Session) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, s.logger)
}

func (s *Session) notify(level slog.Level, msg string, err error) {
	s.notifier.Notify(Notice{Level: level, Message: msg, Err: err})
}

// Open loads the engine module. A failure is reported and returned, but
// the session stays usable for editing and compiling.
func (s *Session) Open(ctx context.Context) error {
	if s.plugin == nil {
		return nil
	}
	if _, err := s.plugin.Load(s.context(ctx)); err != nil {
		s.notify(slog.LevelError, "Could not load the hadan engine module", err)
		return err
	}
	return nil
}

// Close unloads the engine module if this session loaded it. It is safe
// to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s.plugin == nil {
		return nil
	}
	if _, err := s.plugin.Unload(s.context(ctx)); err != nil {
		s.notify(slog.LevelError, "Could not unload the hadan engine module", err)
		return err
	}
	return nil
}

// Params returns the session's parameter set. Changes through it take
// effect on the next Compile.
func (s *Session) Params() *params.Set {
	return s.params
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// AddSelected appends the selected transforms to the position list and
// returns the names that were new.
func (s *Session) AddSelected() []string {
	added := s.positions.Add(s.scene.ListSelected(scene.KindTransform)...)
	if len(added) > 0 {
		s.logger.Debug("Positions added", "names", added)
	}
	return added
}

// AddPositions appends names directly, skipping duplicates.
func (s *Session) AddPositions(names ...string) []string {
	return s.positions.Add(names...)
}

// RemovePosition removes name; an absent name is a no-op.
func (s *Session) RemovePosition(name string) bool {
	return s.positions.Remove(name)
}

// RemovePositionAt removes the entry at i.
func (s *Session) RemovePositionAt(i int) (string, bool) {
	return s.positions.RemoveAt(i)
}

// MovePositionUp swaps entry i with the one before it.
func (s *Session) MovePositionUp(i int) bool {
	return s.positions.MoveUp(i)
}

// MovePositionDown swaps entry i with the one after it.
func (s *Session) MovePositionDown(i int) bool {
	return s.positions.MoveDown(i)
}

// ClearPositions empties the position list.
func (s *Session) ClearPositions() {
	s.positions.Clear()
}

// Positions returns the position names in order.
func (s *Session) Positions() []string {
	return s.positions.Names()
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Compile builds the command for the current selection, parameters and
// positions. On failure the last compiled command is cleared.
func (s *Session) Compile() (*command.Command, error) {
	cmd, err := command.Compile(s.scene, s.params, s.positions.Names())
	if err != nil {
		s.last = nil
		if errors.Is(err, command.ErrNoValidMeshSelected) {
			s.notify(slog.LevelWarn, "Select exactly one mesh to fracture", err)
		} else {
			s.notify(slog.LevelError, "Could not build the hadan command", err)
		}
		return nil, err
	}
	if len(cmd.Dropped) > 0 {
		s.notify(slog.LevelWarn, fmt.Sprintf("Skipped %d position(s) no longer in the scene: %s",
			len(cmd.Dropped), strings.Join(cmd.Dropped, ", ")), nil)
	}
	s.last = cmd
	return cmd, nil
}

// Fracture compiles and hands the command to the executor.
func (s *Session) Fracture(ctx context.Context) (*command.Command, error) {
	cmd, err := s.Compile()
	if err != nil {
		return nil, err
	}
	if s.exec == nil {
		s.notify(slog.LevelError, "No engine host to run the command", ErrNoExecutor)
		return cmd, ErrNoExecutor
	}
	line := cmd.String()
	s.logger.Info("Executing command", "mesh", cmd.Mesh, "points", cmd.Points())
	if err := s.exec.Execute(s.context(ctx), line); err != nil {
		s.notify(slog.LevelError, "The hadan command failed", err)
		return cmd, fmt.Errorf("session: execute: %w", err)
	}
	return cmd, nil
}

// LastCommand returns the text of the last successful compile, or "".
func (s *Session) LastCommand() string {
	if s.last == nil {
		return ""
	}
	return s.last.String()
}
