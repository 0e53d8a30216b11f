package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/askdocs/askdocs/internal/llm"
)

// Cache is the subset of the redis cache the service needs; nil disables
// caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const cacheTTL = 24 * time.Hour

// Service produces embeddings through one fixed provider/model pair, so
// every text embedded during the process lifetime goes through the same
// model. An optional cache short-circuits repeat texts.
type Service struct {
	gateway  llm.Gateway
	provider string
	model    string
	cache    Cache

	mu  sync.Mutex
	dim int
}

func NewService(gw llm.Gateway, provider, model string, cache Cache) *Service {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Service{gateway: gw, provider: provider, model: model, cache: cache}
}

func (s *Service) Model() string { return s.model }

// Dimension probes the model's output dimension with a one-off embedding
// call and caches the answer. The caller is expected to invoke this at
// startup and treat failure as fatal.
func (s *Service) Dimension(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim > 0 {
		return s.dim, nil
	}

	vecs, err := s.embed(ctx, []string{"test"})
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, fmt.Errorf("probe embedding dimension: empty vector returned")
	}
	s.dim = len(vecs[0])
	return s.dim, nil
}

// Embed returns one vector per input text, in input order.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if s.cache == nil {
		return s.embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		var vec []float32
		if err := s.cache.Get(ctx, s.cacheKey(t), &vec); err == nil && len(vec) > 0 {
			out[i] = vec
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := s.embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			out[missingIdx[j]] = vec
			// Best-effort: a failed cache write only costs a future API call.
			_ = s.cache.Set(ctx, s.cacheKey(missing[j]), vec, cacheTTL)
		}
	}

	return out, nil
}

func (s *Service) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	// Batch in groups of 100 for API limits.
	const batchSize = 100
	var all [][]float32

	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
			Provider: s.provider,
			Model:    s.model,
			Input:    texts[i:end],
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i/batchSize, err)
		}
		if len(resp.Embeddings) != end-i {
			return nil, fmt.Errorf("embed batch %d: got %d vectors for %d texts",
				i/batchSize, len(resp.Embeddings), end-i)
		}

		all = append(all, resp.Embeddings...)
	}

	return all, nil
}

func (s *Service) cacheKey(text string) string {
	return fmt.Sprintf("emb:%s:%x", s.model, sha256.Sum256([]byte(text)))
}
