package cliclient

import (
	"context"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// GeminiClient invokes the Gemini CLI, prompt over stdin.
type GeminiClient struct {
	Command string
	Runner  Runner
}

func NewGeminiClient() *GeminiClient {
	return &GeminiClient{Command: "gemini", Runner: &ExecRunner{}}
}

func (c *GeminiClient) Invoke(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error) {
	var args []string
	if req.Model != "" {
		args = append(args, "-m", req.Model)
	}
	return invoke(ctx, c.Runner, RunRequest{
		Cmd:   c.Command,
		Args:  args,
		Stdin: BuildPrompt(req),
	}, req)
}

// Go runs Invoke without blocking; the channel yields exactly one Outcome.
func (c *GeminiClient) Go(ctx context.Context, req llm.GenerationRequest) <-chan Outcome {
	return goInvoke(ctx, func(ctx context.Context) (llm.GenerationResult, error) {
		return c.Invoke(ctx, req)
	})
}
