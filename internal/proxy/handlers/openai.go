package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/translate"
)

// OpenAIChatHandler serves POST /v1/chat/completions: pass-through for cloud
// keys, codex CLI re-execution for local keys.
func OpenAIChatHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteProviderError(w, classify.OpenAI, http.StatusBadRequest, "failed to read request body")
			return
		}

		key := ExtractAPIKey(r)
		mode := classify.Classify(key)
		log.Printf("🔀 [%s] openai %s %s", mode, r.Method, r.URL.Path)

		if mode == classify.Cloud {
			if err := d.forwardCloud(w, r, body, classify.OpenAI); err != nil {
				log.Printf("❌ openai relay failed: %v", err)
				WriteProviderError(w, classify.OpenAI, http.StatusBadGateway, err.Error())
				d.record(r, classify.OpenAI, mode, "", http.StatusBadGateway, started, err.Error())
				return
			}
			d.record(r, classify.OpenAI, mode, "", http.StatusOK, started, "")
			return
		}

		norm, err := translate.OpenAIToNormalized(body)
		if err != nil {
			status := StatusForError(err)
			WriteProviderError(w, classify.OpenAI, status, err.Error())
			d.record(r, classify.OpenAI, mode, "", status, started, err.Error())
			return
		}

		res, err := d.Codex.Invoke(r.Context(), norm)
		if err != nil {
			status := StatusForError(err)
			log.Printf("❌ codex invocation failed: %v", err)
			WriteProviderError(w, classify.OpenAI, status, err.Error())
			d.record(r, classify.OpenAI, mode, norm.Model, status, started, err.Error())
			return
		}

		out, err := translate.NormalizedToOpenAI(res, norm.Model)
		if err != nil {
			WriteProviderError(w, classify.OpenAI, http.StatusInternalServerError, err.Error())
			d.record(r, classify.OpenAI, mode, norm.Model, http.StatusInternalServerError, started, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		log.Printf("✅ [LOCAL] codex answered %s in %s", norm.Model, time.Since(started).Round(time.Millisecond))
		d.record(r, classify.OpenAI, mode, norm.Model, http.StatusOK, started, "")
	}
}
