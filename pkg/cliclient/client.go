package cliclient

import (
	"context"
	"strings"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// Adapter is the common surface of the three CLI clients. The proxy's
// dispatch layer and in-process callers both program against it.
type Adapter interface {
	Invoke(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error)
	Go(ctx context.Context, req llm.GenerationRequest) <-chan Outcome
}

// Outcome is the completion of an asynchronous invocation.
type Outcome struct {
	Result llm.GenerationResult
	Err    error
}

// invoke runs one CLI invocation and maps the subprocess outcome onto a
// GenerationResult. Streaming requests are rejected before any process is
// spawned: the local tools produce output in one shot and faking a stream
// would misrepresent their behavior.
func invoke(ctx context.Context, runner Runner, run RunRequest, req llm.GenerationRequest) (llm.GenerationResult, error) {
	if req.Stream {
		return llm.GenerationResult{FinishReason: llm.FinishError}, &llm.UnsupportedOperationError{Operation: "streaming"}
	}

	out, err := runner.Run(ctx, run)
	if err != nil {
		return llm.GenerationResult{
			FinishReason: llm.FinishError,
			ExitCode:     out.ExitCode,
		}, err
	}

	text := strings.TrimRight(out.Stdout, "\n")
	return llm.GenerationResult{
		Text:         text,
		FinishReason: llm.FinishStop,
		InputTokens:  llm.EstimateTokens(BuildPrompt(req)),
		OutputTokens: llm.EstimateTokens(text),
		ExitCode:     out.ExitCode,
	}, nil
}

// goInvoke is the shared non-blocking variant. The returned channel receives
// exactly one Outcome and is then closed.
func goInvoke(ctx context.Context, fn func(context.Context) (llm.GenerationResult, error)) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := fn(ctx)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}
