package fileops

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// CommandRunner runs an external program to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Opener launches the platform's file handler.
type Opener struct {
	goos string
	run  CommandRunner
}

// NewOpener returns an Opener for the running platform.
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS, run: runCommand}
}

// NewOpenerWith returns an Opener for goos that runs commands through run.
func NewOpenerWith(goos string, run CommandRunner) *Opener {
	return &Opener{goos: goos, run: run}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && len(out) > 0 {
		return fmt.Errorf("%w: %s", err, out)
	}
	return err
}

// Open opens path with the default application, or shows it in the file
// manager when reveal is set.
func (o *Opener) Open(ctx context.Context, path string, reveal bool) error {
	if err := requireFile(path); err != nil {
		return err
	}

	name, args := o.Command(path, reveal)
	slog.Debug("file_open",
		slog.String("path", path),
		slog.Bool("reveal", reveal),
		slog.String("command", name))

	if err := o.run(ctx, name, args...); err != nil {
		return nferrors.New(nferrors.ErrCodeInternal, "failed to open file", err).
			WithDetail("path", path).
			WithDetail("command", name)
	}
	return nil
}

// Command returns the program and arguments Open would run.
func (o *Opener) Command(path string, reveal bool) (string, []string) {
	switch o.goos {
	case "darwin":
		if reveal {
			return "open", []string{"-R", path}
		}
		return "open", []string{path}
	case "windows":
		clean := filepath.Clean(path)
		if reveal {
			return "explorer", []string{"/select,", clean}
		}
		return "explorer", []string{clean}
	default:
		// No portable "select" in Linux file managers; show the folder.
		if reveal {
			return "xdg-open", []string{filepath.Dir(path)}
		}
		return "xdg-open", []string{path}
	}
}
