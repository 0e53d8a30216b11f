package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askdocs/askdocs/internal/rag"
)

type TranscriptHandler struct {
	summarizer *rag.Summarizer
}

func NewTranscriptHandler(sum *rag.Summarizer) *TranscriptHandler {
	return &TranscriptHandler{summarizer: sum}
}

// Summarize refines a raw presentation transcript into a summary with key
// takeaways.
func (h *TranscriptHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transcript required"})
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), req.Transcript)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}
