// Package runner wraps external command execution for the installer stages.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts external command execution so stages can be tested with fakes.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
// Env is appended to the inherited environment of every command.
type ExecRunner struct {
	Env []string
}

// NewExecRunner returns the runner used for real installs.
// apt-get must never stop to ask questions in the middle of a batch.
func NewExecRunner() ExecRunner {
	return ExecRunner{Env: []string{"DEBIAN_FRONTEND=noninteractive"}}
}

// Run executes name with args and blocks until the process exits or ctx is cancelled.
// A missing binary reports exit code 127, like a shell would.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), stderr.Bytes(), -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// CommandError describes a command that exited unsuccessfully.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int32
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed cmd=%s args=%q exit=%d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += fmt.Sprintf(" stderr=%q", e.Stderr)
	}
	return msg + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error { return e.Err }

// Check runs the command and converts a failure into a *CommandError.
// Context cancellation is returned as is so callers can stop the run.
func Check(ctx context.Context, r CommandRunner, name string, args ...string) error {
	_, stderr, exitCode, err := r.Run(ctx, name, args...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &CommandError{
		Name:     name,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   strings.TrimSpace(string(stderr)),
		Err:      err,
	}
}
