// Package llm defines the provider-agnostic request/result types that all
// three translators converge on, plus the error taxonomy shared across the
// proxy. These types are exported so in-process callers can use the
// translation and CLI invocation machinery without going through a socket.
package llm

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is the normalized form of an inference request. Sampling
// parameters are pointers so "unset" stays distinguishable from "set to the
// zero value"; unset parameters must never be materialized when invoking a
// local CLI, to avoid overriding the tool's own defaults.
type GenerationRequest struct {
	Model          string
	Messages       []Message
	System         string
	Temperature    *float64
	TopP           *float64
	TopK           *int
	MaxTokens      *int
	StopSequences  []string
	CandidateCount *int
	Stream         bool
}

// FinishReason describes why generation stopped.
type FinishReason int

const (
	FinishStop FinishReason = iota
	FinishLength
	FinishError
	FinishOther
)

func (f FinishReason) String() string {
	switch f {
	case FinishStop:
		return "STOP"
	case FinishLength:
		return "LENGTH"
	case FinishError:
		return "ERROR"
	default:
		return "OTHER"
	}
}

// GenerationResult is the normalized outcome of a local CLI invocation.
// Token counts are rough length-based estimates, not provider-exact.
type GenerationResult struct {
	Text         string
	FinishReason FinishReason
	InputTokens  int
	OutputTokens int
	ExitCode     int
}

// EstimateTokens approximates a token count from text length. All adapters
// use the same heuristic (~4 bytes per token) so counts are comparable
// across providers, if never exact.
func EstimateTokens(text string) int {
	return len(text) / 4
}
