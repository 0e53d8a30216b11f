package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

// stubStore returns canned search results so threshold filtering can be
// exercised with exact scores.
type stubStore struct {
	results   []vectorstore.SearchResult
	searchErr error
	lastLimit int
}

func (s *stubStore) EnsureCollection(ctx context.Context, dim int) error { return nil }

func (s *stubStore) ReserveIDs(ctx context.Context, n int) (int64, error) { return 0, nil }

func (s *stubStore) Upsert(ctx context.Context, points []vectorstore.Point) error { return nil }

func (s *stubStore) Search(ctx context.Context, query []float32, limit int) ([]vectorstore.SearchResult, error) {
	s.lastLimit = limit
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

func (s *stubStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.results)), nil
}

func scoredResult(text string, score float64) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		Payload: vectorstore.Payload{Text: text, Source: "doc.pdf"},
		Score:   score,
	}
}

func TestRetrieveFiltersByThreshold(t *testing.T) {
	store := &stubStore{results: []vectorstore.SearchResult{
		scoredResult("high", 0.9),
		scoredResult("mid", 0.5),
		scoredResult("low", 0.2),
	}}
	svc := embedding.NewService(&fakeGateway{}, "fake", "fake-embed", nil)
	r := NewRetriever(store, svc)

	chunks, err := r.Retrieve(context.Background(), "question", 3, 0.3)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "high", chunks[0].Text)
	assert.Equal(t, 0.9, chunks[0].Score)
	assert.Equal(t, "mid", chunks[1].Text)
	assert.Equal(t, 3, store.lastLimit)
}

func TestRetrieveKeepsScoresAtThreshold(t *testing.T) {
	store := &stubStore{results: []vectorstore.SearchResult{scoredResult("edge", 0.3)}}
	svc := embedding.NewService(&fakeGateway{}, "fake", "fake-embed", nil)
	r := NewRetriever(store, svc)

	chunks, err := r.Retrieve(context.Background(), "question", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "edge", chunks[0].Text)
}

func TestRetrieveAllBelowThreshold(t *testing.T) {
	store := &stubStore{results: []vectorstore.SearchResult{
		scoredResult("a", 0.2),
		scoredResult("b", 0.1),
	}}
	svc := embedding.NewService(&fakeGateway{}, "fake", "fake-embed", nil)
	r := NewRetriever(store, svc)

	chunks, err := r.Retrieve(context.Background(), "question", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveStoreErrorTagged(t *testing.T) {
	store := &stubStore{searchErr: errors.New("connection refused")}
	svc := embedding.NewService(&fakeGateway{}, "fake", "fake-embed", nil)
	r := NewRetriever(store, svc)

	_, err := r.Retrieve(context.Background(), "question", 5, 0.3)
	require.Error(t, err)
	assert.Equal(t, KindStore, KindOf(err))
}

func TestRetrieveEmbedErrorTagged(t *testing.T) {
	store := &stubStore{}
	svc := embedding.NewService(&fakeGateway{embedErr: errors.New("quota exceeded")}, "fake", "fake-embed", nil)
	r := NewRetriever(store, svc)

	_, err := r.Retrieve(context.Background(), "question", 5, 0.3)
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
}
