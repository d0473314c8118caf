package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pysugar/cli-llm-proxy/pkg/classify"
	"github.com/pysugar/cli-llm-proxy/pkg/translate"
)

// SplitGeminiAction separates the "{model}:{action}" path segment of the
// generateContent endpoints. The model name may itself contain dashes and
// dots, only the final colon is structural.
func SplitGeminiAction(segment string) (model, action string) {
	if i := strings.LastIndexByte(segment, ':'); i >= 0 {
		return segment[:i], segment[i+1:]
	}
	return segment, ""
}

// GeminiGenerateHandler serves POST /v1beta/models/{model}:generateContent
// and :streamGenerateContent: pass-through for cloud keys, gemini CLI
// re-execution for local keys.
func GeminiGenerateHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		model, action := SplitGeminiAction(chi.URLParam(r, "model"))
		stream := action == "streamGenerateContent"
		if action != "generateContent" && !stream {
			// countTokens and friends are never re-executed locally.
			PassthroughHandler(d)(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteProviderError(w, classify.Gemini, http.StatusBadRequest, "failed to read request body")
			return
		}

		key := ExtractAPIKey(r)
		mode := classify.Classify(key)
		log.Printf("🔀 [%s] gemini %s %s", mode, r.Method, r.URL.Path)

		if mode == classify.Cloud {
			if err := d.forwardCloud(w, r, body, classify.Gemini); err != nil {
				log.Printf("❌ gemini relay failed: %v", err)
				WriteProviderError(w, classify.Gemini, http.StatusBadGateway, err.Error())
				d.record(r, classify.Gemini, mode, model, http.StatusBadGateway, started, err.Error())
				return
			}
			d.record(r, classify.Gemini, mode, model, http.StatusOK, started, "")
			return
		}

		norm, err := translate.GeminiToNormalized(model, stream, body)
		if err != nil {
			status := StatusForError(err)
			WriteProviderError(w, classify.Gemini, status, err.Error())
			d.record(r, classify.Gemini, mode, model, status, started, err.Error())
			return
		}

		res, err := d.Gemini.Invoke(r.Context(), norm)
		if err != nil {
			status := StatusForError(err)
			log.Printf("❌ gemini invocation failed: %v", err)
			WriteProviderError(w, classify.Gemini, status, err.Error())
			d.record(r, classify.Gemini, mode, model, status, started, err.Error())
			return
		}

		out, err := translate.NormalizedToGemini(res, model)
		if err != nil {
			WriteProviderError(w, classify.Gemini, http.StatusInternalServerError, err.Error())
			d.record(r, classify.Gemini, mode, model, http.StatusInternalServerError, started, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		log.Printf("✅ [LOCAL] gemini answered %s in %s", model, time.Since(started).Round(time.Millisecond))
		d.record(r, classify.Gemini, mode, model, http.StatusOK, started, "")
	}
}
