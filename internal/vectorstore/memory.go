package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore with the same contract as the
// pgvector store. It backs tests and DB-less development runs.
type MemoryStore struct {
	mu     sync.RWMutex
	dim    int
	nextID int64
	points map[int64]Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[int64]Point)}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		s.dim = dim
		return nil
	}
	if s.dim != dim {
		return fmt.Errorf("collection has dimension %d, embedder produces %d", s.dim, dim)
	}
	return nil
}

func (s *MemoryStore) ReserveIDs(ctx context.Context, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid reservation size %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := s.nextID
	s.nextID += int64(n)
	return start, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		return fmt.Errorf("collection not initialized")
	}
	for _, p := range points {
		if len(p.Vector) != s.dim {
			return fmt.Errorf("point %d: vector has dimension %d, collection expects %d",
				p.ID, len(p.Vector), s.dim)
		}
	}
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id     int64
		result SearchResult
	}
	candidates := make([]scored, 0, len(s.points))
	for id, p := range s.points {
		candidates = append(candidates, scored{
			id:     id,
			result: SearchResult{Payload: p.Payload, Score: cosineSimilarity(query, p.Vector)},
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].result.Score != candidates[j].result.Score {
			return candidates[i].result.Score > candidates[j].result.Score
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = c.result
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.points)), nil
}

// Points returns every stored point ordered by ID. Intended for tests.
func (s *MemoryStore) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
