package vectorstore

import "context"

// Payload is the metadata persisted alongside each vector.
type Payload struct {
	Text          string `json:"text"`
	Source        string `json:"source"`
	OriginalIndex int    `json:"original_index"`
	ChunkIndex    int    `json:"chunk_index"`
}

// Point is one indexed unit: an ID, its embedding, and the payload.
// Upserting a point whose ID already exists replaces the stored point.
type Point struct {
	ID      int64
	Vector  []float32
	Payload Payload
}

// SearchResult pairs a stored payload with its cosine similarity score.
type SearchResult struct {
	Payload Payload
	Score   float64
}

// VectorStore is a cosine-similarity index over one named collection.
//
// EnsureCollection is idempotent and fixes the vector dimension for the
// collection's lifetime; inserting a vector of any other length fails.
// ReserveIDs atomically hands out a contiguous block of point IDs so
// concurrent ingests cannot collide. Search applies no score floor;
// filtering is the caller's concern.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dim int) error
	ReserveIDs(ctx context.Context, n int) (int64, error)
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error)
	Count(ctx context.Context) (int64, error)
}
