package git

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/Iron-Ham/thanks/internal/errors"
)

// CommandExecutor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type CommandExecutor interface {
	// Run executes a command and returns its standard output. On failure the
	// returned error carries the command's standard error (see StderrOf).
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// RunWithInput is like Run but feeds stdin to the command.
	RunWithInput(ctx context.Context, dir string, stdin []byte, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// NewCLICommandExecutor creates a new CLI command executor.
func NewCLICommandExecutor() *CLICommandExecutor {
	return &CLICommandExecutor{}
}

// Run executes a command and returns its standard output.
func (e *CLICommandExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// RunWithInput executes a command with stdin and returns its standard output.
func (e *CLICommandExecutor) RunWithInput(ctx context.Context, dir string, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.Output()
}

// exitCoder is satisfied by *exec.ExitError and by test doubles.
type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the process exit status carried by err, or -1 when err
// did not come from a process that ran to completion.
func ExitCode(err error) int {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

// StderrOf returns the standard error captured with err, if any.
func StderrOf(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(exitErr.Stderr)
	}
	return ""
}
