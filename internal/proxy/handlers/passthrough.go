package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/classify"
)

// PassthroughHandler relays every allowed path that is not a generation
// endpoint. Model listings, token counting and the like are never
// re-executed locally, whatever key the client presents.
func PassthroughHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		provider := classify.ProviderForPath(r.URL.Path)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteProviderError(w, provider, http.StatusBadRequest, "failed to read request body")
			return
		}

		log.Printf("🔀 [CLOUD] %s %s %s", provider, r.Method, r.URL.Path)
		if err := d.forwardCloud(w, r, body, provider); err != nil {
			log.Printf("❌ %s relay failed: %v", provider, err)
			WriteProviderError(w, provider, http.StatusBadGateway, err.Error())
			d.record(r, provider, classify.Cloud, "", http.StatusBadGateway, started, err.Error())
			return
		}
		d.record(r, provider, classify.Cloud, "", http.StatusOK, started, "")
	}
}
