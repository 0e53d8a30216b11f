package rag

import (
	"context"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// RetrievedChunk is a transient similarity-query result. Text is the full
// stored chunk text; any display truncation belongs to the presentation
// layer.
type RetrievedChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type Retriever struct {
	store    vectorstore.VectorStore
	embedSvc *embedding.Service
}

func NewRetriever(store vectorstore.VectorStore, embedSvc *embedding.Service) *Retriever {
	return &Retriever{store: store, embedSvc: embedSvc}
}

// Retrieve embeds the question, fetches the topK nearest neighbors and
// keeps those at or above scoreThreshold, preserving descending-score
// order.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int, scoreThreshold float64) ([]RetrievedChunk, error) {
	queryVec, err := r.embedSvc.EmbedSingle(ctx, question)
	if err != nil {
		return nil, newError(KindUpstream, "embed question: %w", err)
	}

	results, err := r.store.Search(ctx, queryVec, topK)
	if err != nil {
		return nil, newError(KindStore, "similarity search: %w", err)
	}

	var chunks []RetrievedChunk
	for _, res := range results {
		if res.Score < scoreThreshold {
			continue
		}
		chunks = append(chunks, RetrievedChunk{
			Text:   res.Payload.Text,
			Source: res.Payload.Source,
			Score:  res.Score,
		})
	}
	return chunks, nil
}
