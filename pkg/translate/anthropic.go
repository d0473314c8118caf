// Package translate converts between each provider's wire schema and the
// normalized llm.GenerationRequest / llm.GenerationResult forms. Field-name
// and nesting differences are absorbed entirely here; the normalized form
// never models provider-specific quirks.
package translate

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// Anthropic Messages API structures

type AnthropicRequest struct {
	Model         string             `json:"model"`
	Messages      []AnthropicMessage `json:"messages"`
	MaxTokens     *int               `json:"max_tokens,omitempty"`
	System        json.RawMessage    `json:"system,omitempty"`
	Stream        bool               `json:"stream,omitempty"`
	Temperature   *float64           `json:"temperature,omitempty"`
	TopP          *float64           `json:"top_p,omitempty"`
	TopK          *int               `json:"top_k,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts both string content and content-block arrays
// (Claude SDKs send either shape).
func (m *AnthropicMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.Role = a.Role
	m.Content = flattenTextBlocks(a.Content)
	return nil
}

// flattenTextBlocks extracts plain text from a string or a list of
// {"type":"text","text":...} blocks.
func flattenTextBlocks(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var texts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				texts = append(texts, b.Text)
			}
		}
		return strings.Join(texts, "\n")
	}
	return ""
}

type AnthropicResponse struct {
	ID           string                  `json:"id"`
	Type         string                  `json:"type"`
	Role         string                  `json:"role"`
	Content      []AnthropicContentBlock `json:"content"`
	Model        string                  `json:"model"`
	StopReason   string                  `json:"stop_reason,omitempty"`
	StopSequence *string                 `json:"stop_sequence,omitempty"`
	Usage        AnthropicUsage          `json:"usage"`
}

type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Text returns the concatenated text blocks. Client SDKs read both this
// accessor and the content list, so both are kept populated.
func (r *AnthropicResponse) Text() string {
	var sb strings.Builder
	for _, b := range r.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// AnthropicToNormalized converts an /v1/messages request body to the
// normalized form.
func AnthropicToNormalized(body []byte) (llm.GenerationRequest, error) {
	var req AnthropicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return llm.GenerationRequest{}, &llm.SchemaError{Reason: err.Error()}
	}
	if req.Model == "" {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "model", Reason: "required"}
	}
	if len(req.Messages) == 0 {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "messages", Reason: "at least one message required"}
	}

	norm := llm.GenerationRequest{
		Model:         req.Model,
		System:        flattenTextBlocks(req.System),
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		MaxTokens:     req.MaxTokens,
		StopSequences: req.StopSequences,
		Stream:        req.Stream,
	}
	for _, m := range req.Messages {
		norm.Messages = append(norm.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	return norm, nil
}

// NormalizedToAnthropic renders a GenerationResult as an Anthropic message
// envelope for the given model.
func NormalizedToAnthropic(res llm.GenerationResult, model string) ([]byte, error) {
	resp := AnthropicResponse{
		ID:         "msg_" + uuid.New().String(),
		Type:       "message",
		Role:       "assistant",
		Model:      model,
		StopReason: anthropicStopReason(res.FinishReason),
		Content: []AnthropicContentBlock{
			{Type: "text", Text: res.Text},
		},
		Usage: AnthropicUsage{
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
		},
	}
	return json.Marshal(resp)
}

func anthropicStopReason(f llm.FinishReason) string {
	switch f {
	case llm.FinishLength:
		return "max_tokens"
	default:
		return "end_turn"
	}
}

// AnthropicErrorBody renders an error in Anthropic's error schema so official
// SDKs can parse it the same way they parse a real API error.
func AnthropicErrorBody(errType, message string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"type": "error",
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
	return b
}
