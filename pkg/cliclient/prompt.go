package cliclient

import (
	"strings"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// BuildPrompt flattens a normalized request into the single prompt string
// the local CLIs accept. A lone user turn with no system instruction passes
// through verbatim; anything longer becomes a role-tagged transcript so the
// tool sees the full conversation.
func BuildPrompt(req llm.GenerationRequest) string {
	if req.System == "" && len(req.Messages) == 1 && req.Messages[0].Role == "user" {
		return req.Messages[0].Content
	}

	var sb strings.Builder
	if req.System != "" {
		sb.WriteString("System: ")
		sb.WriteString(req.System)
		sb.WriteString("\n\n")
	}
	for i, m := range req.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch m.Role {
		case "assistant", "model":
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
