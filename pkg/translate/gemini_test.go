package translate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiToNormalized(t *testing.T) {
	body := []byte(`{
		"contents": [
			{"role": "user", "parts": [{"text": "Hello"}]},
			{"role": "model", "parts": [{"text": "Hi"}]},
			{"role": "user", "parts": [{"text": "More"}]}
		],
		"systemInstruction": {"parts": [{"text": "be brief"}]},
		"generationConfig": {"temperature": 0.3, "topK": 40, "maxOutputTokens": 100, "stopSequences": ["X"]}
	}`)

	norm, err := GeminiToNormalized("gemini-2.0-flash", false, body)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", norm.Model)
	assert.Equal(t, "be brief", norm.System)
	require.Len(t, norm.Messages, 3)
	assert.Equal(t, "assistant", norm.Messages[1].Role, "model role maps to assistant")
	require.NotNil(t, norm.TopK)
	assert.Equal(t, 40, *norm.TopK)
	require.NotNil(t, norm.MaxTokens)
	assert.Equal(t, 100, *norm.MaxTokens)
	assert.Equal(t, []string{"X"}, norm.StopSequences)
	assert.Nil(t, norm.TopP)
	assert.False(t, norm.Stream)
}

func TestGeminiToNormalizedStreamFlag(t *testing.T) {
	body := []byte(`{"contents": [{"role": "user", "parts": [{"text": "hi"}]}]}`)
	norm, err := GeminiToNormalized("gemini-2.0-flash", true, body)
	require.NoError(t, err)
	assert.True(t, norm.Stream)
}

func TestGeminiSystemInstructionPrecedence(t *testing.T) {
	// Request-level systemInstruction wins over one embedded in the config.
	body := []byte(`{
		"contents": [{"role": "user", "parts": [{"text": "hi"}]}],
		"systemInstruction": {"parts": [{"text": "explicit"}]},
		"generationConfig": {"systemInstruction": {"parts": [{"text": "embedded"}]}}
	}`)
	norm, err := GeminiToNormalized("gemini-2.0-flash", false, body)
	require.NoError(t, err)
	assert.Equal(t, "explicit", norm.System)

	bodyEmbeddedOnly := []byte(`{
		"contents": [{"role": "user", "parts": [{"text": "hi"}]}],
		"generationConfig": {"systemInstruction": {"parts": [{"text": "embedded"}]}}
	}`)
	norm, err = GeminiToNormalized("gemini-2.0-flash", false, bodyEmbeddedOnly)
	require.NoError(t, err)
	assert.Equal(t, "embedded", norm.System)
}

func TestGeminiToNormalizedSchemaErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		model string
		body  string
	}{
		"missing model":    {"", `{"contents": [{"parts": [{"text": "hi"}]}]}`},
		"missing contents": {"gemini-2.0-flash", `{}`},
		"empty parts":      {"gemini-2.0-flash", `{"contents": [{"parts": []}]}`},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := GeminiToNormalized(tc.model, false, []byte(tc.body))
			var schemaErr *llm.SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
		})
	}
}

func TestNormalizedToGemini(t *testing.T) {
	res := llm.GenerationResult{
		Text:         "answer",
		FinishReason: llm.FinishStop,
		InputTokens:  4,
		OutputTokens: 2,
	}
	body, err := NormalizedToGemini(res, "gemini-2.0-flash")
	require.NoError(t, err)

	var resp GeminiResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "model", resp.Candidates[0].Content.Role)
	assert.Equal(t, "STOP", resp.Candidates[0].FinishReason)
	assert.Equal(t, "answer", resp.Text())
	require.NotNil(t, resp.UsageMetadata)
	assert.Equal(t, 6, resp.UsageMetadata.TotalTokenCount)
	assert.Equal(t, "gemini-2.0-flash", resp.ModelVersion)
}

func TestGeminiFinishReasons(t *testing.T) {
	for reason, want := range map[llm.FinishReason]string{
		llm.FinishStop:   "STOP",
		llm.FinishLength: "MAX_TOKENS",
		llm.FinishError:  "OTHER",
	} {
		body, err := NormalizedToGemini(llm.GenerationResult{FinishReason: reason}, "m")
		require.NoError(t, err)
		var resp GeminiResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, want, resp.Candidates[0].FinishReason)
	}
}

func TestGeminiRoundTrip(t *testing.T) {
	temp := 0.9
	count := 1
	orig := GeminiRequest{
		Contents: []GeminiContent{{Role: "user", Parts: []GeminiPart{{Text: "Hello"}}}},
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:    &temp,
			CandidateCount: &count,
		},
	}
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	norm, err := GeminiToNormalized("gemini-2.0-flash", false, raw)
	require.NoError(t, err)
	assert.Equal(t, orig.GenerationConfig.Temperature, norm.Temperature)
	assert.Equal(t, orig.GenerationConfig.CandidateCount, norm.CandidateCount)
	assert.Equal(t, "Hello", norm.Messages[0].Content)
}

func TestGeminiErrorBody(t *testing.T) {
	body := GeminiErrorBody(403, "PERMISSION_DENIED", "path not allowed")
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	inner := parsed["error"].(map[string]interface{})
	assert.Equal(t, float64(403), inner["code"])
	assert.Equal(t, "PERMISSION_DENIED", inner["status"])
}
