package translate

import (
	"encoding/json"
	"strings"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// Gemini generateContent structures. The model name and the streaming flag
// live in the URL, not the body, so GeminiToNormalized receives them
// separately.

type GeminiRequest struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
	CandidateCount  *int     `json:"candidateCount,omitempty"`
	// Some SDK builds embed the system instruction inside the generation
	// config instead of the request. The request-level field wins when both
	// are present.
	SystemInstruction *GeminiContent `json:"systemInstruction,omitempty"`
}

type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string               `json:"modelVersion,omitempty"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text returns the first candidate's concatenated text parts.
func (r *GeminiResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func contentText(c *GeminiContent) string {
	if c == nil {
		return ""
	}
	var texts []string
	for _, p := range c.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// GeminiToNormalized converts a :generateContent body to the normalized
// form. stream reflects whether the :streamGenerateContent endpoint was hit.
func GeminiToNormalized(model string, stream bool, body []byte) (llm.GenerationRequest, error) {
	var req GeminiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return llm.GenerationRequest{}, &llm.SchemaError{Reason: err.Error()}
	}
	if model == "" {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "model", Reason: "required"}
	}
	if len(req.Contents) == 0 {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "contents", Reason: "at least one content entry required"}
	}

	norm := llm.GenerationRequest{
		Model:  model,
		Stream: stream,
	}

	// Request-level systemInstruction overrides one embedded in the
	// generation config.
	system := contentText(req.SystemInstruction)
	if system == "" && req.GenerationConfig != nil {
		system = contentText(req.GenerationConfig.SystemInstruction)
	}
	norm.System = system

	if cfg := req.GenerationConfig; cfg != nil {
		norm.Temperature = cfg.Temperature
		norm.TopP = cfg.TopP
		norm.TopK = cfg.TopK
		norm.MaxTokens = cfg.MaxOutputTokens
		norm.StopSequences = cfg.StopSequences
		norm.CandidateCount = cfg.CandidateCount
	}

	for _, c := range req.Contents {
		role := c.Role
		if role == "model" {
			role = "assistant"
		}
		if role == "" {
			role = "user"
		}
		text := contentText(&c)
		if text == "" {
			continue
		}
		norm.Messages = append(norm.Messages, llm.Message{Role: role, Content: text})
	}
	if len(norm.Messages) == 0 {
		return llm.GenerationRequest{}, &llm.SchemaError{Field: "contents", Reason: "no text parts found"}
	}
	return norm, nil
}

// NormalizedToGemini renders a GenerationResult as a generateContent
// response envelope.
func NormalizedToGemini(res llm.GenerationResult, model string) ([]byte, error) {
	resp := GeminiResponse{
		Candidates: []GeminiCandidate{
			{
				Content: GeminiContent{
					Role:  "model",
					Parts: []GeminiPart{{Text: res.Text}},
				},
				FinishReason: geminiFinishReason(res.FinishReason),
				Index:        0,
			},
		},
		UsageMetadata: &GeminiUsageMetadata{
			PromptTokenCount:     res.InputTokens,
			CandidatesTokenCount: res.OutputTokens,
			TotalTokenCount:      res.InputTokens + res.OutputTokens,
		},
		ModelVersion: model,
	}
	return json.Marshal(resp)
}

func geminiFinishReason(f llm.FinishReason) string {
	switch f {
	case llm.FinishLength:
		return "MAX_TOKENS"
	case llm.FinishError:
		return "OTHER"
	default:
		return "STOP"
	}
}

// GeminiErrorBody renders an error in the Google API error schema.
func GeminiErrorBody(code int, status, message string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
	return b
}
