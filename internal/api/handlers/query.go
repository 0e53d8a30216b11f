package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// Chunk previews in responses are capped; the pipeline keeps full text.
const previewRunes = 200

type QueryHandler struct {
	pipeline   rag.Pipeline
	store      vectorstore.VectorStore
	collection string
}

func NewQueryHandler(p rag.Pipeline, store vectorstore.VectorStore, collection string) *QueryHandler {
	return &QueryHandler{pipeline: p, store: store, collection: collection}
}

type chunkView struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type queryResponse struct {
	Success   bool        `json:"success"`
	Question  string      `json:"question"`
	Answer    string      `json:"answer"`
	NumChunks int         `json:"num_chunks_retrieved"`
	Chunks    []chunkView `json:"chunks"`
}

// Query answers a question posted as JSON.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req rag.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.answer(w, r, req)
}

// Answer answers a question passed as a query parameter, for convenience.
func (h *QueryHandler) Answer(w http.ResponseWriter, r *http.Request) {
	req := rag.QueryRequest{Question: r.URL.Query().Get("question")}
	if v := r.URL.Query().Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid top_k"})
			return
		}
		req.TopK = n
	}
	if v := r.URL.Query().Get("score_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid score_threshold"})
			return
		}
		req.ScoreThreshold = f
	}
	h.answer(w, r, req)
}

func (h *QueryHandler) answer(w http.ResponseWriter, r *http.Request, req rag.QueryRequest) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question required"})
		return
	}

	result, err := h.pipeline.Query(r.Context(), req)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	chunks := make([]chunkView, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = chunkView{
			Text:   truncateRunes(c.Text, previewRunes),
			Source: c.Source,
			Score:  math.Round(c.Score*10000) / 10000,
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Success:   true,
		Question:  req.Question,
		Answer:    result.Answer,
		NumChunks: result.NumChunks,
		Chunks:    chunks,
	})
}

// Stats reports the size of the vector collection.
func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collection": h.collection,
		"points":     count,
	})
}
