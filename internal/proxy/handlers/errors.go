package handlers

import (
	"net/http"

	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/translate"
)

// WriteProviderError renders err-like failures in the schema of the
// provider the client was talking to, so its SDK parses them like a real
// API error instead of choking on a transport failure.
func WriteProviderError(w http.ResponseWriter, provider classify.Provider, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch provider {
	case classify.Anthropic:
		w.Write(translate.AnthropicErrorBody(anthropicErrorType(status), message))
	case classify.Gemini:
		w.Write(translate.GeminiErrorBody(status, googleStatus(status), message))
	default:
		// OpenAI's shape doubles as the generic fallback for paths that
		// belong to no known provider.
		w.Write(translate.OpenAIErrorBody(openAIErrorType(status), message))
	}
}

func anthropicErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request_error"
	case http.StatusUnauthorized:
		return "authentication_error"
	case http.StatusForbidden:
		return "permission_error"
	case http.StatusNotFound:
		return "not_found_error"
	default:
		return "api_error"
	}
}

func openAIErrorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return "invalid_request_error"
	case http.StatusUnauthorized:
		return "authentication_error"
	default:
		return "server_error"
	}
}

func googleStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusGatewayTimeout:
		return "DEADLINE_EXCEEDED"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}
