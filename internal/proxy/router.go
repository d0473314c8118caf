// Package proxy hosts the HTTP surface: the chi dispatch router and the
// server that terminates plain and MITM'd TLS traffic.
package proxy

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/cli-llm-proxy/internal/allowlist"
	"github.com/pysugar/cli-llm-proxy/internal/logging"
	"github.com/pysugar/cli-llm-proxy/internal/proxy/handlers"
	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/llm"
)

// NewRouter builds the dispatch router. The allow-list runs before any
// translator: a denied path never reaches provider-specific code.
func NewRouter(d *handlers.Deps, filter *allowlist.Filter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(allowMiddleware(filter))

	r.Post("/v1/messages", handlers.AnthropicMessagesHandler(d))
	r.Post("/v1/chat/completions", handlers.OpenAIChatHandler(d))
	r.Post("/v1/completions", handlers.OpenAIChatHandler(d))
	r.Post("/v1beta/models/{model}", handlers.GeminiGenerateHandler(d))

	// Everything else that cleared the allow-list is relayed untouched.
	r.NotFound(handlers.PassthroughHandler(d))
	r.MethodNotAllowed(handlers.PassthroughHandler(d))
	return r
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logging.NewRequestID()
		w.Header().Set("X-Request-Id", id)
		logging.Verbosef("📨 %s %s %s %s", id, r.Method, r.Host, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// recoverMiddleware turns a handler panic into an error in the provider's
// own schema instead of a bare connection reset.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("💥 panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				provider := classify.ProviderForPath(r.URL.Path)
				handlers.WriteProviderError(w, provider, http.StatusInternalServerError, "internal proxy error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func allowMiddleware(filter *allowlist.Filter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !filter.Allow(r.URL.Path) {
				err := &llm.PathDeniedError{Path: r.URL.Path}
				log.Printf("⛔ %s", err)
				provider := classify.ProviderForPath(r.URL.Path)
				handlers.WriteProviderError(w, provider, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
