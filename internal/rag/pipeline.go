package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectorstore"
	"github.com/askdocs/askdocs/pkg/chunker"
)

// NoAnswerMessage is returned when no chunk clears the score threshold;
// the language model is not consulted in that case.
const NoAnswerMessage = "I couldn't find any relevant information in the knowledge base to answer this question."

type Pipeline interface {
	Ingest(ctx context.Context, req IngestRequest) (int, error)
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)
}

// IngestRequest carries one document's text segments. Texts holds one
// entry per page for PDFs, or a single transcript for audio.
type IngestRequest struct {
	Source    string
	Texts     []string
	ChunkOpts chunker.ChunkOptions // zero value: configured defaults
}

type QueryRequest struct {
	Question       string  `json:"question"`
	TopK           int     `json:"top_k,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
}

type QueryResult struct {
	Answer    string           `json:"answer"`
	Chunks    []RetrievedChunk `json:"chunks"`
	NumChunks int              `json:"num_chunks"`
}

// Options are the pipeline-wide defaults, sourced from configuration.
type Options struct {
	ChunkOpts      chunker.ChunkOptions
	TopK           int
	ScoreThreshold float64
	Provider       string
	Model          string
}

type pipeline struct {
	store     vectorstore.VectorStore
	embedSvc  *embedding.Service
	retriever *Retriever
	generator *Generator
	opts      Options
}

func NewPipeline(store vectorstore.VectorStore, embedSvc *embedding.Service, gw llm.Gateway, opts Options) Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = 0.3
	}
	return &pipeline{
		store:     store,
		embedSvc:  embedSvc,
		retriever: NewRetriever(store, embedSvc),
		generator: NewGenerator(gw, opts.Provider, opts.Model),
		opts:      opts,
	}
}

// Ingest runs one document through chunk -> embed -> reserve IDs -> upsert
// and returns the number of chunks stored. Any failing step aborts the
// whole ingestion; nothing is partially committed before the final upsert.
func (p *pipeline) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	if strings.TrimSpace(req.Source) == "" {
		return 0, newError(KindValidation, "source is required")
	}

	opts := req.ChunkOpts
	if opts.MaxTokens == 0 {
		opts = p.opts.ChunkOpts
	}

	chunks := ChunkPages(req.Texts, req.Source, opts)
	if len(chunks) == 0 {
		return 0, newError(KindValidation, "no chunks generated from %q", req.Source)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := p.embedSvc.Embed(ctx, texts)
	if err != nil {
		return 0, newError(KindUpstream, "generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, newError(KindUpstream, "got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	startID, err := p.store.ReserveIDs(ctx, len(chunks))
	if err != nil {
		return 0, newError(KindStore, "reserve point ids: %w", err)
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.Point{
			ID:     startID + int64(i),
			Vector: embeddings[i],
			Payload: vectorstore.Payload{
				Text:          c.Text,
				Source:        c.Source,
				OriginalIndex: c.OriginalIndex,
				ChunkIndex:    c.ChunkIndex,
			},
		}
	}

	if err := p.store.Upsert(ctx, points); err != nil {
		return 0, newError(KindStore, "store chunks: %w", err)
	}

	slog.Info("document ingested", "source", req.Source, "chunks", len(chunks), "start_id", startID)
	return len(chunks), nil
}

// Query retrieves relevant chunks and generates a grounded answer. An
// empty retrieval short-circuits with a canned answer and no model call; a
// generation failure is absorbed into the answer text so retrieval results
// still reach the caller.
func (p *pipeline) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, newError(KindValidation, "question is required")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = p.opts.TopK
	}
	threshold := req.ScoreThreshold
	if threshold <= 0 {
		threshold = p.opts.ScoreThreshold
	}

	chunks, err := p.retriever.Retrieve(ctx, question, topK, threshold)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &QueryResult{
			Answer:    NoAnswerMessage,
			Chunks:    []RetrievedChunk{},
			NumChunks: 0,
		}, nil
	}

	answer, err := p.generator.Generate(ctx, question, chunks)
	if err != nil {
		// Retrieval succeeded; report the generation failure in-band.
		slog.Warn("answer generation failed", "error", err)
		answer = fmt.Sprintf("Error generating answer: %v", err)
	}

	return &QueryResult{
		Answer:    answer,
		Chunks:    chunks,
		NumChunks: len(chunks),
	}, nil
}
