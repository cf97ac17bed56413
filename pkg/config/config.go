// Package config loads CLI settings from the environment and command-line
// flags. Flags win over environment variables, which win over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/chazu/hadan/pkg/ctxlog"
	"github.com/chazu/hadan/pkg/plugin"
)

// Config holds the CLI settings.
type Config struct {
	PluginPath    string        `env:"MAYA_PLUG_IN_PATH"`
	DebugModule   string        `env:"HADAN_DEBUG_MODULE"   envDefault:"hadan_d.mll"`
	ReleaseModule string        `env:"HADAN_RELEASE_MODULE" envDefault:"hadan.mll"`
	LogLevel      string        `env:"HADAN_LOG_LEVEL"      envDefault:"info"`
	LogFormat     string        `env:"HADAN_LOG_FORMAT"     envDefault:"text"`
	ScriptTimeout time.Duration `env:"HADAN_SCRIPT_TIMEOUT" envDefault:"5s"`
	MeshCells     int           `env:"HADAN_MESH_CELLS"     envDefault:"48"`
}

// Parse reads environ (as returned by env.ToMap(os.Environ())), then
// applies flags from args. It returns the positional arguments left after
// the flags.
func Parse(fs *flag.FlagSet, args []string, environ map[string]string) (Config, []string, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, nil, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.PluginPath, "plugin-path", cfg.PluginPath, "directories searched for the engine module, OS list separated")
	fs.StringVar(&cfg.DebugModule, "debug-module", cfg.DebugModule, "debug artifact name, preferred when both exist")
	fs.StringVar(&cfg.ReleaseModule, "release-module", cfg.ReleaseModule, "release artifact name")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text, json)")
	fs.DurationVar(&cfg.ScriptTimeout, "script-timeout", cfg.ScriptTimeout, "scene script evaluation timeout")
	fs.IntVar(&cfg.MeshCells, "mesh-cells", cfg.MeshCells, "marching cubes cells along the longest mesh axis")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, ok := ctxlog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.ScriptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("script timeout must be positive, got %s", c.ScriptTimeout))
	}
	if c.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("mesh cells must be positive, got %d", c.MeshCells))
	}
	if c.DebugModule == "" && c.ReleaseModule == "" {
		errs = append(errs, errors.New("at least one module name is required"))
	}
	return errors.Join(errs...)
}

// PluginDirs splits PluginPath on the OS list separator, dropping empty
// entries.
func (c Config) PluginDirs() []string {
	var dirs []string
	for _, d := range filepath.SplitList(c.PluginPath) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// PluginOptions returns the plugin manager options for this config.
func (c Config) PluginOptions() plugin.Options {
	return plugin.Options{
		Dirs:        c.PluginDirs(),
		DebugName:   c.DebugModule,
		ReleaseName: c.ReleaseModule,
	}
}
