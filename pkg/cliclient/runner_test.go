package cliclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

func TestExecRunnerCapturesStdout(t *testing.T) {
	r := &ExecRunner{}
	out, err := r.Run(context.Background(), RunRequest{
		Cmd:  "sh",
		Args: []string{"-c", "printf hello"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "hello" {
		t.Fatalf("expected stdout %q, got %q", "hello", out.Stdout)
	}
	if out.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", out.ExitCode)
	}
}

func TestExecRunnerPassesStdin(t *testing.T) {
	r := &ExecRunner{}
	out, err := r.Run(context.Background(), RunRequest{
		Cmd:   "cat",
		Stdin: "piped prompt",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "piped prompt" {
		t.Fatalf("expected stdin echoed back, got %q", out.Stdout)
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	r := &ExecRunner{}
	out, err := r.Run(context.Background(), RunRequest{
		Cmd:  "sh",
		Args: []string{"-c", "echo 'tool crashed' >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var cliErr *llm.CliInvocationError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CliInvocationError, got %T", err)
	}
	if cliErr.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", cliErr.ExitCode)
	}
	if cliErr.Stderr != "tool crashed" {
		t.Fatalf("expected stderr surfaced, got %q", cliErr.Stderr)
	}
	if out.ExitCode != 3 {
		t.Fatalf("expected result exit code 3, got %d", out.ExitCode)
	}
}

func TestExecRunnerTimeoutKillsProcess(t *testing.T) {
	r := &ExecRunner{Timeout: 100 * time.Millisecond}
	start := time.Now()
	_, err := r.Run(context.Background(), RunRequest{
		Cmd:  "sleep",
		Args: []string{"10"},
	})
	if time.Since(start) > 5*time.Second {
		t.Fatal("runner did not honor the timeout")
	}
	var cliErr *llm.CliInvocationError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CliInvocationError, got %v", err)
	}
	if !cliErr.Timeout {
		t.Fatal("expected Timeout flag set")
	}
}

func TestExecRunnerMissingCommand(t *testing.T) {
	r := &ExecRunner{}
	_, err := r.Run(context.Background(), RunRequest{Cmd: "definitely-not-a-command-xyz"})
	var cliErr *llm.CliInvocationError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CliInvocationError, got %v", err)
	}
	if cliErr.ExitCode != -1 {
		t.Fatalf("expected exit code -1 for spawn failure, got %d", cliErr.ExitCode)
	}
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := &ExecRunner{}
	if _, err := r.Run(context.Background(), RunRequest{}); err == nil {
		t.Fatal("expected error for empty command")
	}
}
