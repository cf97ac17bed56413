// Package plugin finds the hadan engine module on a search path and
// drives its load/unload lifecycle against the engine host.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/hadan/pkg/ctxlog"
)

// Default artifact names of the engine module.
const (
	DefaultDebugName   = "hadan_d.mll"
	DefaultReleaseName = "hadan.mll"
)

var (
	ErrModuleNotFound = errors.New("engine module not found")
	ErrLoadFailed     = errors.New("engine module load failed")
	ErrUnloadFailed   = errors.New("engine module unload failed")
)

// ModuleHost is the part of the engine host that loads modules.
type ModuleHost interface {
	LoadModule(path string) error
	UnloadModule(path string) error
	IsModuleLoaded(path string) bool
}

// Outcome says whether a lifecycle call changed host state.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // host already in the requested state
	OutcomeLoaded
	OutcomeUnloaded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeLoaded:
		return "loaded"
	case OutcomeUnloaded:
		return "unloaded"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Options configures a Manager.
type Options struct {
	Dirs        []string // searched in order
	DebugName   string   // preferred artifact; DefaultDebugName when empty
	ReleaseName string   // fallback artifact; DefaultReleaseName when empty
}

// Manager tracks the engine module across a session. It is not safe for
// concurrent use.
type Manager struct {
	host    ModuleHost
	dirs    []string
	debug   string
	release string
	path    string // last resolved
	loaded  string // what Load put in the host; Unload targets this
}

// NewManager creates a manager for host.
func NewManager(host ModuleHost, opts Options) *Manager {
	m := &Manager{
		host:    host,
		dirs:    append([]string(nil), opts.Dirs...),
		debug:   opts.DebugName,
		release: opts.ReleaseName,
	}
	if m.debug == "" {
		m.debug = DefaultDebugName
	}
	if m.release == "" {
		m.release = DefaultReleaseName
	}
	return m
}

// Dirs returns the search directories in order.
func (m *Manager) Dirs() []string {
	return append([]string(nil), m.dirs...)
}

// Path returns the last resolved module path, or "" before the first
// successful Resolve.
func (m *Manager) Path() string {
	return m.path
}

// Loaded returns the module path this manager has loaded, or "".
func (m *Manager) Loaded() string {
	return m.loaded
}

// Resolve returns the module in the first directory holding either
// artifact, preferring the debug build within that directory.
func (m *Manager) Resolve() (string, error) {
	for _, dir := range m.dirs {
		if dir == "" {
			continue
		}
		for _, name := range []string{m.debug, m.release} {
			p := filepath.Join(dir, name)
			if isFile(p) {
				m.path = p
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: searched %d dir(s) for %s or %s", ErrModuleNotFound, len(m.dirs), m.debug, m.release)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Load resolves the module and asks the host to load it unless it already
// is. Calling Load twice results in one host load, even if a different
// artifact has appeared on the search path in between.
func (m *Manager) Load(ctx context.Context) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	if m.loaded != "" && m.host.IsModuleLoaded(m.loaded) {
		logger.Debug("Engine module already loaded", "path", m.loaded, "outcome", OutcomeSkipped.String())
		return OutcomeSkipped, nil
	}
	m.loaded = ""

	path, err := m.Resolve()
	if err != nil {
		logger.Warn("Engine module not found", "dirs", m.dirs, "debug", m.debug, "release", m.release)
		return OutcomeSkipped, err
	}
	if m.host.IsModuleLoaded(path) {
		m.loaded = path
		logger.Debug("Engine module already loaded", "path", path, "outcome", OutcomeSkipped.String())
		return OutcomeSkipped, nil
	}
	if err := m.host.LoadModule(path); err != nil {
		logger.Error("Engine module failed to load", "path", path, "error", err)
		return OutcomeSkipped, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	m.loaded = path
	logger.Info("Engine module loaded", "path", path, "outcome", OutcomeLoaded.String())
	return OutcomeLoaded, nil
}

// Unload asks the host to unload the module Load loaded, if it still is.
// It is safe to call when Load never succeeded or was never called.
func (m *Manager) Unload(ctx context.Context) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	path := m.loaded
	if path == "" || !m.host.IsModuleLoaded(path) {
		m.loaded = ""
		logger.Debug("Engine module not loaded; nothing to unload", "path", path, "outcome", OutcomeSkipped.String())
		return OutcomeSkipped, nil
	}
	if err := m.host.UnloadModule(path); err != nil {
		logger.Error("Engine module failed to unload", "path", path, "error", err)
		return OutcomeSkipped, fmt.Errorf("%w: %s: %w", ErrUnloadFailed, path, err)
	}
	m.loaded = ""
	logger.Info("Engine module unloaded", "path", path, "outcome", OutcomeUnloaded.String())
	return OutcomeUnloaded, nil
}
