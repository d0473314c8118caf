// Package handlers implements per-provider dispatch: classify the presented
// API key, then either relay the request bytes to the real host or
// re-execute it against the local CLI and reshape the output into the
// provider's wire schema.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/cli-llm-proxy/internal/config"
	"github.com/pysugar/cli-llm-proxy/internal/db"
	"github.com/pysugar/cli-llm-proxy/internal/relay"
	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/cliclient"
	"github.com/pysugar/cli-llm-proxy/pkg/llm"
	"gorm.io/gorm"
)

// Deps carries the collaborators every handler needs. Built once at startup
// and passed by reference; there is no global client state.
type Deps struct {
	Config *config.Config
	Relay  *relay.Relay
	Claude cliclient.Adapter
	Codex  cliclient.Adapter
	Gemini cliclient.Adapter
	DB     *gorm.DB
}

// NewDeps wires the default adapters from the configuration.
func NewDeps(cfg *config.Config, database *gorm.DB) *Deps {
	timeout := time.Duration(cfg.CLI.TimeoutSeconds) * time.Second
	runner := &cliclient.ExecRunner{Timeout: timeout}
	return &Deps{
		Config: cfg,
		Relay:  relay.New(),
		Claude: &cliclient.ClaudeClient{Command: cfg.CLI.Claude, Runner: runner},
		Codex:  &cliclient.CodexClient{Command: cfg.CLI.Codex, Runner: runner},
		Gemini: &cliclient.GeminiClient{Command: cfg.CLI.Gemini, Runner: runner},
		DB:     database,
	}
}

// ExtractAPIKey pulls the client credential from the places the three
// official SDKs put it: x-api-key (Anthropic), Authorization Bearer
// (OpenAI), x-goog-api-key or ?key= (Gemini).
func ExtractAPIKey(r *http.Request) string {
	if key := r.Header.Get("x-api-key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("x-goog-api-key"); key != "" {
		return key
	}
	return r.URL.Query().Get("key")
}

// targetHost resolves the real upstream host for the relay leg. MITM'd
// requests carry the genuine host in the Host header; direct HTTP requests
// hit the proxy's own address, so fall back to the provider's canonical
// endpoint.
func (d *Deps) targetHost(r *http.Request, provider classify.Provider) string {
	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if d.Config.InterceptsHost(host) {
		return host
	}
	switch provider {
	case classify.Anthropic:
		return "api.anthropic.com"
	case classify.OpenAI:
		return "api.openai.com"
	case classify.Gemini:
		return "generativelanguage.googleapis.com"
	default:
		return host
	}
}

func (d *Deps) serverKey(provider classify.Provider) string {
	switch provider {
	case classify.Anthropic:
		return d.Config.APIKeys.Anthropic
	case classify.OpenAI:
		return d.Config.APIKeys.OpenAI
	case classify.Gemini:
		return d.Config.APIKeys.Gemini
	default:
		return ""
	}
}

// forwardCloud relays the original bytes to the real host, leaving the
// request unmodified apart from hop-by-hop header hygiene.
func (d *Deps) forwardCloud(w http.ResponseWriter, r *http.Request, body []byte, provider classify.Provider) error {
	host := d.targetHost(r, provider)
	fwd := r.Clone(r.Context())
	fwd.Host = host
	return d.Relay.Forward(r.Context(), w, fwd, body, relay.Credential{
		Provider: provider,
		Key:      d.serverKey(provider),
	})
}

// record writes one best-effort request log row off the request goroutine.
func (d *Deps) record(r *http.Request, provider classify.Provider, mode classify.Mode, model string, status int, started time.Time, errMsg string) {
	if d.DB == nil {
		return
	}
	// Snapshot before spawning: the request object is not ours to keep once
	// the handler returns.
	row := db.Record{
		Method:   r.Method,
		Host:     r.Host,
		Path:     r.URL.Path,
		Provider: provider.String(),
		Mode:     mode.String(),
		Model:    model,
		Status:   status,
		Duration: time.Since(started),
		Err:      errMsg,
	}
	go db.RecordRequest(d.DB, row)
}

// StatusForError maps the error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	var schemaErr *llm.SchemaError
	var unsupported *llm.UnsupportedOperationError
	var denied *llm.PathDeniedError
	var transport *llm.UpstreamTransportError
	var cliErr *llm.CliInvocationError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.As(err, &cliErr):
		if cliErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
