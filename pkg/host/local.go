// Package host is an in-process engine host: it keeps a module table and
// a command table, and provides the hadan command that a loaded engine
// module registers. It stands in for the real host application so the
// front-end core can run headless.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chazu/hadan/pkg/ctxlog"
	"github.com/chazu/hadan/pkg/kernel"
	"github.com/chazu/hadan/pkg/scene"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrCommandExists   = errors.New("command already registered")
	ErrModuleLoaded    = errors.New("module already loaded")
	ErrModuleNotLoaded = errors.New("module not loaded")
)

// CommandFunc runs one invocation of a registered command. line is the
// full command text including the command name.
type CommandFunc func(ctx context.Context, line string) error

// Options configures a Local host.
type Options struct {
	Scene  *scene.Scene
	Kernel kernel.Kernel
	Logger *slog.Logger // slog.Default when nil
}

// Local is the in-process engine host. It is not safe for concurrent use.
type Local struct {
	scene  *scene.Scene
	kernel kernel.Kernel
	logger *slog.Logger

	modules  map[string]*Module
	commands map[string]CommandFunc
	jobs     []Job
}

// NewLocal creates a host over the given scene and kernel.
func NewLocal(opts Options) *Local {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := opts.Scene
	if s == nil {
		s = scene.New()
	}
	return &Local{
		scene:    s,
		kernel:   opts.Kernel,
		logger:   logger,
		modules:  make(map[string]*Module),
		commands: make(map[string]CommandFunc),
	}
}

// Scene returns the scene commands operate on.
func (h *Local) Scene() *scene.Scene {
	return h.scene
}

// SetScene replaces the scene. Loaded modules and accepted jobs are kept.
func (h *Local) SetScene(s *scene.Scene) {
	h.scene = s
}

// ---------------------------------------------------------------------------
// Module table
// ---------------------------------------------------------------------------

// LoadModule loads the engine module at path and runs its initializer,
// which registers the hadan command. The file must exist.
func (h *Local) LoadModule(path string) error {
	key := filepath.Clean(path)
	if _, ok := h.modules[key]; ok {
		return fmt.Errorf("host: %s: %w", key, ErrModuleLoaded)
	}
	fi, err := os.Stat(key)
	if err != nil {
		return fmt.Errorf("host: load %s: %w", key, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("host: load %s: not a regular file", key)
	}

	m := newModule(key)
	if err := h.initializeModule(m); err != nil {
		h.deregister(m)
		return fmt.Errorf("host: initialize %s: %w", m.Name, err)
	}
	h.modules[key] = m
	h.logger.Info("Module loaded", "module", m.Name, "path", key, "commands", m.Commands)
	return nil
}

// initializeModule registers what an engine module provides.
func (h *Local) initializeModule(m *Module) error {
	return h.register(m, CommandName, h.runHadan)
}

// UnloadModule deregisters everything the module registered and forgets it.
func (h *Local) UnloadModule(path string) error {
	key := filepath.Clean(path)
	m, ok := h.modules[key]
	if !ok {
		return fmt.Errorf("host: %s: %w", key, ErrModuleNotLoaded)
	}
	h.deregister(m)
	delete(h.modules, key)
	h.logger.Info("Module unloaded", "module", m.Name, "path", key)
	return nil
}

// IsModuleLoaded reports whether path is in the module table.
func (h *Local) IsModuleLoaded(path string) bool {
	_, ok := h.modules[filepath.Clean(path)]
	return ok
}

// Modules returns the loaded modules sorted by path.
func (h *Local) Modules() []*Module {
	mods := make([]*Module, 0, len(h.modules))
	for _, m := range h.modules {
		mods = append(mods, m)
	}
	slices.SortFunc(mods, func(a, b *Module) int { return strings.Compare(a.Path, b.Path) })
	return mods
}

func (h *Local) register(m *Module, name string, fn CommandFunc) error {
	if _, ok := h.commands[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrCommandExists)
	}
	h.commands[name] = fn
	m.AddCommand(name)
	return nil
}

func (h *Local) deregister(m *Module) {
	for _, name := range m.Commands {
		delete(h.commands, name)
	}
}

// ---------------------------------------------------------------------------
// Command table
// ---------------------------------------------------------------------------

// Commands returns the registered command names, sorted.
func (h *Local) Commands() []string {
	names := make([]string, 0, len(h.commands))
	for name := range h.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs a command line. The first word selects the command.
func (h *Local) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("host: empty command: %w", ErrUnknownCommand)
	}
	fn, ok := h.commands[fields[0]]
	if !ok {
		return fmt.Errorf("host: %q: %w", fields[0], ErrUnknownCommand)
	}
	logger, ok := ctxlog.Lookup(ctx)
	if !ok {
		logger = h.logger
	}
	ctx = ctxlog.WithLogger(ctx, logger.With("command", fields[0]))
	return fn(ctx, line)
}
