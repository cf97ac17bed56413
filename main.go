package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/chazu/hadan/pkg/config"
	"github.com/chazu/hadan/pkg/ctxlog"
	"github.com/chazu/hadan/pkg/job"
)

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	// Use a minimal logger until the configured one is built.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:], env.ToMap(os.Environ())); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const usage = `
hadan - compile and run a fracture job against a scene.

Usage:
  hadan [options] SCENE_SCRIPT JOB_FILE

Arguments:
  SCENE_SCRIPT
    Lisp scene description (see examples/shatter.lisp).
  JOB_FILE
    HCL fracture job (see examples/shatter.hcl).

Options:
`

// run is the whole CLI. The compiled command goes to stdout, logs to
// stderr.
func run(ctx context.Context, stdout, stderr io.Writer, args []string, environ map[string]string) error {
	fs := flag.NewFlagSet("hadan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	cfg, rest, err := config.Parse(fs, args, environ)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: 2, Message: "invalid configuration: " + err.Error()}
	}
	if len(rest) != 2 {
		fs.Usage()
		return &ExitError{Code: 2, Message: fmt.Sprintf("expected SCENE_SCRIPT and JOB_FILE, got %d argument(s)", len(rest))}
	}
	scenePath, jobPath := rest[0], rest[1]

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	source, err := os.ReadFile(scenePath)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	j, err := job.Load(jobPath)
	if err != nil {
		return err
	}

	app := NewApp(cfg, logger)
	app.startup(ctx)

	loaded := app.Evaluate(string(source))
	if len(loaded.Errors) > 0 {
		msgs := make([]string, 0, len(loaded.Errors))
		for _, e := range loaded.Errors {
			if e.Line > 0 {
				msgs = append(msgs, fmt.Sprintf("%s:%d: %s", scenePath, e.Line, e.Message))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s: %s", scenePath, e.Message))
			}
		}
		return errors.New(strings.Join(msgs, "\n"))
	}

	// A missing engine module is reported but does not stop compilation;
	// the fracture step then fails with an unknown command.
	if err := app.Open(); err != nil {
		logger.Debug("Continuing without engine module", "error", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	if err := app.ApplyJob(j); err != nil {
		return err
	}

	result := app.Fracture()
	if result.Command != "" {
		fmt.Fprintln(stdout, result.Command)
	}
	if result.Error != "" {
		return errors.New(result.Error)
	}
	for _, jd := range app.Jobs() {
		logger.Info("Fracture job", "job", jd.ID, "mesh", jd.Mesh, "points", jd.Points, "triangles", jd.Triangles)
	}
	return nil
}
