// Package cliclient invokes local inference CLIs (claude, codex, gemini) as
// subprocesses and maps their output onto the normalized GenerationResult.
// No retries happen here; a failed invocation is reported upward immediately.
package cliclient

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// DefaultTimeout bounds one subprocess invocation. A hung CLI is killed and
// reported as a timeout, never left to hang the connection.
const DefaultTimeout = 5 * time.Minute

// RunRequest describes one external command execution.
type RunRequest struct {
	Cmd   string
	Args  []string
	Stdin string
}

// RunResult captures process output.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands. Adapters depend on this interface so
// tests can substitute a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunResult, error)
}

// ExecRunner runs commands with os/exec, honoring context cancellation so a
// closed client connection kills the subprocess.
type ExecRunner struct {
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if req.Cmd == "" {
		return RunResult{}, &llm.CliInvocationError{Command: "(empty)", ExitCode: -1, Stderr: "command must not be empty"}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, req.Cmd, req.Args...)
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return result, &llm.CliInvocationError{
			Command: req.Cmd,
			Timeout: true,
			Stderr:  result.Stderr,
			Err:     ctx.Err(),
		}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Spawn failure (e.g. executable not found on PATH).
			result.ExitCode = -1
		}
		return result, &llm.CliInvocationError{
			Command:  req.Cmd,
			ExitCode: result.ExitCode,
			Stderr:   strings.TrimSpace(result.Stderr),
			Err:      err,
		}
	}
	return result, nil
}
