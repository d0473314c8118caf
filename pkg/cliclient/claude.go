package cliclient

import (
	"context"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// ClaudeClient invokes the Claude Code CLI. The prompt goes over stdin in
// print mode; only the model is forwarded as a flag so unset sampling
// parameters never override the tool's own defaults.
type ClaudeClient struct {
	Command string
	Runner  Runner
}

func NewClaudeClient() *ClaudeClient {
	return &ClaudeClient{Command: "claude", Runner: &ExecRunner{}}
}

func (c *ClaudeClient) Invoke(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error) {
	args := []string{"-p"}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	return invoke(ctx, c.Runner, RunRequest{
		Cmd:   c.Command,
		Args:  args,
		Stdin: BuildPrompt(req),
	}, req)
}

// Go runs Invoke without blocking; the channel yields exactly one Outcome.
func (c *ClaudeClient) Go(ctx context.Context, req llm.GenerationRequest) <-chan Outcome {
	return goInvoke(ctx, func(ctx context.Context) (llm.GenerationResult, error) {
		return c.Invoke(ctx, req)
	})
}
