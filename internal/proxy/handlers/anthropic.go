package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/translate"
)

// AnthropicMessagesHandler serves POST /v1/messages: pass-through for cloud
// keys, claude CLI re-execution for local keys.
func AnthropicMessagesHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteProviderError(w, classify.Anthropic, http.StatusBadRequest, "failed to read request body")
			return
		}

		key := ExtractAPIKey(r)
		mode := classify.Classify(key)
		log.Printf("🔀 [%s] anthropic %s %s", mode, r.Method, r.URL.Path)

		if mode == classify.Cloud {
			if err := d.forwardCloud(w, r, body, classify.Anthropic); err != nil {
				log.Printf("❌ anthropic relay failed: %v", err)
				WriteProviderError(w, classify.Anthropic, http.StatusBadGateway, err.Error())
				d.record(r, classify.Anthropic, mode, "", http.StatusBadGateway, started, err.Error())
				return
			}
			d.record(r, classify.Anthropic, mode, "", http.StatusOK, started, "")
			return
		}

		norm, err := translate.AnthropicToNormalized(body)
		if err != nil {
			status := StatusForError(err)
			WriteProviderError(w, classify.Anthropic, status, err.Error())
			d.record(r, classify.Anthropic, mode, "", status, started, err.Error())
			return
		}

		res, err := d.Claude.Invoke(r.Context(), norm)
		if err != nil {
			status := StatusForError(err)
			log.Printf("❌ claude invocation failed: %v", err)
			WriteProviderError(w, classify.Anthropic, status, err.Error())
			d.record(r, classify.Anthropic, mode, norm.Model, status, started, err.Error())
			return
		}

		out, err := translate.NormalizedToAnthropic(res, norm.Model)
		if err != nil {
			WriteProviderError(w, classify.Anthropic, http.StatusInternalServerError, err.Error())
			d.record(r, classify.Anthropic, mode, norm.Model, http.StatusInternalServerError, started, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		log.Printf("✅ [LOCAL] claude answered %s in %s", norm.Model, time.Since(started).Round(time.Millisecond))
		d.record(r, classify.Anthropic, mode, norm.Model, http.StatusOK, started, "")
	}
}
