// Package relay forwards CLOUD-mode requests to the real provider host and
// streams the response back. The outbound leg always validates the
// upstream's certificate chain; the proxy never relays over a weakened TLS
// session.
package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// Relay performs transparent pass-through to upstream provider hosts.
type Relay struct {
	client *http.Client
	// rewrites maps a host to a replacement base URL (scheme://host). Used
	// by tests and by deployments that front a provider with a custom base.
	rewrites map[string]string
}

func New() *Relay {
	return &Relay{
		client: &http.Client{
			// Long timeout so upstream SSE streams are not cut short.
			Timeout: 5 * time.Minute,
		},
		rewrites: make(map[string]string),
	}
}

// RewriteHost redirects traffic for host to the given base URL.
func (r *Relay) RewriteHost(host, base string) {
	r.rewrites[host] = base
}

// Credential optionally injects a server-side API key on the outbound leg
// when the client presented none. Client-supplied credentials are always
// forwarded untouched.
type Credential struct {
	Provider classify.Provider
	Key      string
}

// Forward replays the intercepted request against the real host and copies
// the response to w, flushing chunk by chunk so upstream SSE relays
// verbatim. Transport failures come back as UpstreamTransportError.
func (r *Relay) Forward(ctx context.Context, w http.ResponseWriter, req *http.Request, body []byte, cred Credential) error {
	host := req.Host
	base := r.rewrites[host]
	if base == "" {
		base = "https://" + host
	}
	target, err := url.Parse(base)
	if err != nil {
		return &llm.UpstreamTransportError{Host: host, Err: err}
	}
	target.Path = req.URL.Path
	target.RawQuery = req.URL.RawQuery

	out, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bytes.NewReader(body))
	if err != nil {
		return &llm.UpstreamTransportError{Host: host, Err: err}
	}
	copyForwardHeaders(out.Header, req.Header)
	injectCredential(out, cred)

	resp, err := r.client.Do(out)
	if err != nil {
		return &llm.UpstreamTransportError{Host: host, Err: err}
	}
	defer resp.Body.Close()
	return copyResponse(w, resp)
}

// injectCredential adds the configured server-side key only when the client
// sent no credential of its own.
func injectCredential(req *http.Request, cred Credential) {
	if cred.Key == "" {
		return
	}
	switch cred.Provider {
	case classify.Anthropic:
		if req.Header.Get("x-api-key") == "" && req.Header.Get("Authorization") == "" {
			req.Header.Set("x-api-key", cred.Key)
		}
	case classify.OpenAI:
		if req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+cred.Key)
		}
	case classify.Gemini:
		if req.Header.Get("x-goog-api-key") == "" && req.URL.Query().Get("key") == "" {
			req.Header.Set("x-goog-api-key", cred.Key)
		}
	}
}

func copyForwardHeaders(dst, src http.Header) {
	for k, values := range src {
		canonical := http.CanonicalHeaderKey(k)
		if shouldSkipRequestHeader(canonical) {
			continue
		}
		for _, v := range values {
			dst.Add(canonical, v)
		}
	}
}

func shouldSkipRequestHeader(header string) bool {
	switch header {
	case "Accept-Encoding",
		"Connection",
		"Proxy-Connection",
		"Keep-Alive",
		"Transfer-Encoding",
		"Te",
		"Trailer",
		"Upgrade",
		"Proxy-Authenticate",
		"Proxy-Authorization":
		return true
	default:
		return false
	}
}

func copyResponse(w http.ResponseWriter, resp *http.Response) error {
	for k, values := range resp.Header {
		canonical := http.CanonicalHeaderKey(k)
		if shouldSkipResponseHeader(canonical) {
			continue
		}
		for _, v := range values {
			w.Header().Add(canonical, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	return copyBodyWithFlush(w, resp.Body)
}

func shouldSkipResponseHeader(header string) bool {
	switch header {
	case "Connection",
		"Proxy-Connection",
		"Keep-Alive",
		"Transfer-Encoding",
		"Te",
		"Trailer",
		"Upgrade",
		"Proxy-Authenticate",
		"Proxy-Authorization":
		return true
	default:
		return false
	}
}

func copyBodyWithFlush(w http.ResponseWriter, src io.Reader) error {
	buf := make([]byte, 32*1024)
	flusher, canFlush := w.(http.Flusher)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
