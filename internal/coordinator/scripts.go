package coordinator

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Runner executes one coordinator script.
type Runner interface {
	Run(ctx context.Context, script string) error
}

// ShellRunner runs scripts through sh -c and forwards their output.
type ShellRunner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes script and waits for it to exit.
func (r *ShellRunner) Run(ctx context.Context, script string) error {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	_, _ = fmt.Fprintf(r.stdout(), "Executing script: %s\n", script)

	cmd := exec.CommandContext(ctx, shell, "-c", script) //nolint:gosec // scripts are operator supplied
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("script %q: %w", script, err)
	}
	return nil
}

func (r *ShellRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, script string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, script string) error {
	return f(ctx, script)
}
