package translate

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// OpenAI chat completions structures

type OpenAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	Stream      bool            `json:"stream,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	N           *int            `json:"n,omitempty"`
	Stop        OpenAIStop      `json:"stop,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON handles both string and multimodal array content formats.
func (m *OpenAIMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	m.Role = a.Role

	var str string
	if err := json.Unmarshal(a.Content, &str); err == nil {
		m.Content = str
		return nil
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(a.Content, &parts); err == nil {
		var texts []string
		for _, p := range parts {
			if p.Type == "text" && p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		m.Content = strings.Join(texts, "\n")
		return nil
	}
	return nil
}

// OpenAIStop accepts the API's string-or-array stop field.
type OpenAIStop []string

func (s *OpenAIStop) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = OpenAIStop{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = OpenAIStop(many)
	return nil
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   *OpenAIUsage   `json:"usage,omitempty"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason *string       `json:"finish_reason,omitempty"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the first choice's message content.
func (r *OpenAIChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// OpenAIToNormalized converts a /v1/chat/completions request body to the
// normalized form. The system role message, when present, becomes the
// normalized system instruction rather than a regular turn.
func OpenAIToNormalized(body []byte) (llm.GenerationRequest, error) {
	var req OpenAIChatRequest
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
		Model:          req.Model,
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		MaxTokens:      req.MaxTokens,
		StopSequences:  []string(req.Stop),
		CandidateCount: req.N,
		Stream:         req.Stream,
	}
	for _, m := range req.Messages {
		if m.Role == "system" || m.Role == "developer" {
			if norm.System != "" {
				norm.System += "\n"
			}
			norm.System += m.Content
			continue
		}
		norm.Messages = append(norm.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(norm.Messages) == 0 {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "messages", Reason: "at least one non-system message required"}
	}
	return norm, nil
}

// NormalizedToOpenAI renders a GenerationResult as a chat.completion
// envelope for the given model.
func NormalizedToOpenAI(res llm.GenerationResult, model string) ([]byte, error) {
	finish := openAIFinishReason(res.FinishReason)
	resp := OpenAIChatResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []OpenAIChoice{
			{
				Index:        0,
				Message:      OpenAIMessage{Role: "assistant", Content: res.Text},
				FinishReason: &finish,
			},
		},
		Usage: &OpenAIUsage{
			PromptTokens:     res.InputTokens,
			CompletionTokens: res.OutputTokens,
			TotalTokens:      res.InputTokens + res.OutputTokens,
		},
	}
	return json.Marshal(resp)
}

func openAIFinishReason(f llm.FinishReason) string {
	switch f {
	case llm.FinishLength:
		return "length"
	default:
		return "stop"
	}
}

// OpenAIErrorBody renders an error in OpenAI's error schema.
func OpenAIErrorBody(errType, message string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errType,
			"param":   nil,
			"code":    nil,
		},
	})
	return b
}
