package translate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/pysugar/cli-llm-proxy/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicToNormalized(t *testing.T) {
	body := []byte(`{
		"model": "claude-3-sonnet-20240229",
		"max_tokens": 1024,
		"temperature": 0.5,
		"system": "be terse",
		"stop_sequences": ["END"],
		"messages": [{"role": "user", "content": "Hello"}]
	}`)

	norm, err := AnthropicToNormalized(body)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-sonnet-20240229", norm.Model)
	assert.Equal(t, "be terse", norm.System)
	require.Len(t, norm.Messages, 1)
	assert.Equal(t, llm.Message{Role: "user", Content: "Hello"}, norm.Messages[0])
	require.NotNil(t, norm.MaxTokens)
	assert.Equal(t, 1024, *norm.MaxTokens)
	require.NotNil(t, norm.Temperature)
	assert.Equal(t, 0.5, *norm.Temperature)
	assert.Equal(t, []string{"END"}, norm.StopSequences)
	assert.Nil(t, norm.TopP, "unset sampling params must stay unset")
	assert.False(t, norm.Stream)
}

func TestAnthropicToNormalizedContentBlocks(t *testing.T) {
	body := []byte(`{
		"model": "claude-3-haiku-20240307",
		"system": [{"type": "text", "text": "sys a"}, {"type": "text", "text": "sys b"}],
		"messages": [
			{"role": "user", "content": [{"type": "text", "text": "part one"}, {"type": "text", "text": "part two"}]}
		]
	}`)

	norm, err := AnthropicToNormalized(body)
	require.NoError(t, err)
	assert.Equal(t, "sys a\nsys b", norm.System)
	assert.Equal(t, "part one\npart two", norm.Messages[0].Content)
}

func TestAnthropicToNormalizedSchemaErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing model", `{"messages": [{"role": "user", "content": "hi"}]}`},
		{"missing messages", `{"model": "claude-3-sonnet-20240229"}`},
		{"not json", `{"model": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AnthropicToNormalized([]byte(tc.body))
			var schemaErr *llm.SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
		})
	}
}

func TestNormalizedToAnthropic(t *testing.T) {
	res := llm.GenerationResult{
		Text:         "Hi there!",
		FinishReason: llm.FinishStop,
		InputTokens:  2,
		OutputTokens: 3,
	}
	body, err := NormalizedToAnthropic(res, "claude-3-sonnet-20240229")
	require.NoError(t, err)

	var resp AnthropicResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "message", resp.Type)
	assert.Equal(t, "assistant", resp.Role)
	assert.Equal(t, "claude-3-sonnet-20240229", resp.Model)
	assert.Equal(t, "end_turn", resp.StopReason)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Equal(t, "Hi there!", resp.Content[0].Text)
	assert.Equal(t, "Hi there!", resp.Text())
	assert.Equal(t, 3, resp.Usage.OutputTokens)
}

func TestNormalizedToAnthropicLengthStop(t *testing.T) {
	body, err := NormalizedToAnthropic(llm.GenerationResult{Text: "x", FinishReason: llm.FinishLength}, "m")
	require.NoError(t, err)
	var resp AnthropicResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "max_tokens", resp.StopReason)
}

// Round trip: a request using only documented fields survives translation to
// the normalized form and back into the provider request shape unchanged.
func TestAnthropicRoundTrip(t *testing.T) {
	temp := 0.7
	topP := 0.9
	maxTokens := 256
	orig := AnthropicRequest{
		Model:         "claude-3-sonnet-20240229",
		Messages:      []AnthropicMessage{{Role: "user", Content: "Hello"}, {Role: "assistant", Content: "Hi"}},
		MaxTokens:     &maxTokens,
		Temperature:   &temp,
		TopP:          &topP,
		StopSequences: []string{"STOP"},
	}
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	norm, err := AnthropicToNormalized(raw)
	require.NoError(t, err)

	assert.Equal(t, orig.Model, norm.Model)
	assert.Equal(t, orig.Temperature, norm.Temperature)
	assert.Equal(t, orig.TopP, norm.TopP)
	assert.Equal(t, orig.MaxTokens, norm.MaxTokens)
	assert.Equal(t, orig.StopSequences, norm.StopSequences)
	for i, m := range orig.Messages {
		assert.Equal(t, llm.Message{Role: m.Role, Content: m.Content}, norm.Messages[i])
	}
}

func TestAnthropicErrorBody(t *testing.T) {
	body := AnthropicErrorBody("api_error", "tool crashed")
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "error", parsed["type"])
	inner := parsed["error"].(map[string]interface{})
	assert.Equal(t, "api_error", inner["type"])
	assert.Equal(t, "tool crashed", inner["message"])
}
