package cliclient

import (
	"context"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// CodexClient invokes the Codex CLI in exec mode, prompt over stdin.
type CodexClient struct {
	Command string
	Runner  Runner
}

func NewCodexClient() *CodexClient {
	return &CodexClient{Command: "codex", Runner: &ExecRunner{}}
}

func (c *CodexClient) Invoke(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error) {
	args := []string{"exec"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	args = append(args, "-")
	return invoke(ctx, c.Runner, RunRequest{
		Cmd:   c.Command,
		Args:  args,
		Stdin: BuildPrompt(req),
	}, req)
}

// Go runs Invoke without blocking; the channel yields exactly one Outcome.
func (c *CodexClient) Go(ctx context.Context, req llm.GenerationRequest) <-chan Outcome {
	return goInvoke(ctx, func(ctx context.Context) (llm.GenerationResult, error) {
		return c.Invoke(ctx, req)
	})
}
