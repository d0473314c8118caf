// Package classify decides, purely from the shape of an API key, whether a
// request should reach the real cloud endpoint or a local CLI tool.
package classify

import "strings"

// Mode is the routing decision for one request.
type Mode int

const (
	// Cloud forwards the request unmodified to the real provider endpoint.
	Cloud Mode = iota
	// Local substitutes a local CLI invocation for the real API call.
	Local
)

func (m Mode) String() string {
	if m == Local {
		return "LOCAL"
	}
	return "CLOUD"
}

// Provider identifies which cloud API surface a request belongs to.
type Provider int

const (
	Anthropic Provider = iota
	OpenAI
	Gemini
	UnknownProvider
)

func (p Provider) String() string {
	switch p {
	case Anthropic:
		return "anthropic"
	case OpenAI:
		return "openai"
	case Gemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// Classify returns Local when the segment after the last '-' in the key is
// non-empty and consists solely of '9'. Everything else, including an empty
// or absent key, routes Cloud: a missing credential must surface as an
// authentication error from the real upstream, never be swallowed locally.
func Classify(key string) Mode {
	if key == "" {
		return Cloud
	}
	last := key
	if i := strings.LastIndexByte(key, '-'); i >= 0 {
		last = key[i+1:]
	}
	if last == "" {
		return Cloud
	}
	for i := 0; i < len(last); i++ {
		if last[i] != '9' {
			return Cloud
		}
	}
	return Local
}

// ProviderForPath maps a request path to the provider whose wire schema it
// speaks. Used by dispatch to pick a translator and an error envelope.
func ProviderForPath(path string) Provider {
	switch {
	case strings.HasPrefix(path, "/v1/messages"):
		return Anthropic
	case strings.HasPrefix(path, "/v1/chat/completions"),
		strings.HasPrefix(path, "/v1/completions"),
		strings.HasPrefix(path, "/v1/responses"):
		return OpenAI
	case strings.HasPrefix(path, "/v1beta/"), strings.HasPrefix(path, "/v1internal/"):
		return Gemini
	default:
		return UnknownProvider
	}
}
