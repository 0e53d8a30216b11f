package handlers

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/askdocs/askdocs/internal/rag"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writePipelineError maps pipeline error kinds to status codes: malformed
// requests are the client's fault, everything else is a processing
// failure.
func writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if rag.KindOf(err) == rag.KindValidation {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// truncateRunes shortens s for display; full chunk text stays in the
// pipeline results.
func truncateRunes(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "..."
}
