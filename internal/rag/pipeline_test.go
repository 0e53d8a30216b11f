package rag

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/vectorstore"
	"github.com/askdocs/askdocs/pkg/chunker"
)

const fakeDim = 8

// fakeGateway is a deterministic llm.Gateway: embeddings are derived from
// the text's hash (identical text, identical vector) and chat returns a
// canned reply while counting calls.
type fakeGateway struct {
	mu         sync.Mutex
	chatCalls  int
	chatReply  string
	chatErr    error
	embedErr   error
	lastPrompt string
}

func (g *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chatCalls++
	if len(req.Messages) > 0 {
		g.lastPrompt = req.Messages[len(req.Messages)-1].Content
	}
	if g.chatErr != nil {
		return nil, g.chatErr
	}
	return &llm.ChatResponse{Provider: "fake", Model: req.Model, Content: g.chatReply}, nil
}

func (g *fakeGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.embedErr != nil {
		return nil, g.embedErr
	}
	vecs := make([][]float32, len(req.Input))
	for i, text := range req.Input {
		vecs[i] = hashVector(text)
	}
	return &llm.EmbeddingResponse{Provider: "fake", Model: req.Model, Embeddings: vecs}, nil
}

func (g *fakeGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("no providers configured")
}

func (g *fakeGateway) ListModels() []llm.ModelInfo { return nil }

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chatCalls
}

func hashVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, fakeDim)
	for i := range vec {
		vec[i] = float32(sum[i])/255 + 0.01
	}
	return vec
}

func newTestPipeline(t *testing.T, gw *fakeGateway) (Pipeline, *vectorstore.MemoryStore) {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), fakeDim))
	svc := embedding.NewService(gw, "fake", "fake-embed", nil)
	return NewPipeline(store, svc, gw, Options{}), store
}

func TestIngestAssignsContiguousMonotonicIDs(t *testing.T) {
	gw := &fakeGateway{chatReply: "ok"}
	p, store := newTestPipeline(t, gw)
	ctx := context.Background()

	pageA := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	count, err := p.Ingest(ctx, IngestRequest{
		Source:    "a.pdf",
		Texts:     []string{pageA},
		ChunkOpts: chunker.ChunkOptions{MaxTokens: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	count, err = p.Ingest(ctx, IngestRequest{
		Source:    "b.pdf",
		Texts:     []string{"lambda mu nu xi omicron pi"},
		ChunkOpts: chunker.ChunkOptions{MaxTokens: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	points := store.Points()
	require.Len(t, points, 8)
	for i, pt := range points {
		assert.Equal(t, int64(i), pt.ID)
	}
	assert.Equal(t, "a.pdf", points[4].Payload.Source)
	assert.Equal(t, "b.pdf", points[5].Payload.Source)
}

func TestQueryRoundTrip(t *testing.T) {
	gw := &fakeGateway{chatReply: "The fox jumps."}
	p, _ := newTestPipeline(t, gw)
	ctx := context.Background()

	text := "the quick brown fox jumps over the lazy dog"
	_, err := p.Ingest(ctx, IngestRequest{Source: "fox.txt", Texts: []string{text}})
	require.NoError(t, err)

	res, err := p.Query(ctx, QueryRequest{Question: text})
	require.NoError(t, err)

	require.GreaterOrEqual(t, res.NumChunks, 1)
	top := res.Chunks[0]
	assert.Equal(t, text, top.Text)
	assert.Equal(t, "fox.txt", top.Source)
	assert.InDelta(t, 1.0, top.Score, 1e-6)
	assert.Equal(t, "The fox jumps.", res.Answer)
	assert.Contains(t, gw.lastPrompt, "[Source: fox.txt]\n"+text)
}

func TestQueryEmptyRetrievalSkipsGeneration(t *testing.T) {
	gw := &fakeGateway{chatReply: "should not be called"}
	p, _ := newTestPipeline(t, gw)

	res, err := p.Query(context.Background(), QueryRequest{Question: "anything at all"})
	require.NoError(t, err)

	assert.Equal(t, NoAnswerMessage, res.Answer)
	assert.Equal(t, 0, res.NumChunks)
	assert.Empty(t, res.Chunks)
	assert.Equal(t, 0, gw.calls(), "model must not be consulted on empty retrieval")
}

func TestQueryGenerationFailureAbsorbed(t *testing.T) {
	gw := &fakeGateway{chatErr: errors.New("model unavailable")}
	p, _ := newTestPipeline(t, gw)
	ctx := context.Background()

	text := "storage engines and write amplification"
	_, err := p.Ingest(ctx, IngestRequest{Source: "notes.txt", Texts: []string{text}})
	require.NoError(t, err)

	res, err := p.Query(ctx, QueryRequest{Question: text})
	require.NoError(t, err, "generation failure must not fail the query")

	assert.True(t, strings.HasPrefix(res.Answer, "Error generating answer:"))
	assert.Contains(t, res.Answer, "model unavailable")
	require.Equal(t, 1, res.NumChunks)
	assert.Equal(t, text, res.Chunks[0].Text)
}

func TestQueryRejectsBlankQuestion(t *testing.T) {
	gw := &fakeGateway{}
	p, _ := newTestPipeline(t, gw)

	_, err := p.Query(context.Background(), QueryRequest{Question: "   "})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestIngestRejectsEmptyInput(t *testing.T) {
	gw := &fakeGateway{}
	p, _ := newTestPipeline(t, gw)
	ctx := context.Background()

	_, err := p.Ingest(ctx, IngestRequest{Source: "", Texts: []string{"text"}})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = p.Ingest(ctx, IngestRequest{Source: "empty.pdf", Texts: []string{"", "  "}})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestIngestEmbeddingFailureAborts(t *testing.T) {
	gw := &fakeGateway{embedErr: errors.New("embedding service down")}
	p, store := newTestPipeline(t, gw)

	_, err := p.Ingest(context.Background(), IngestRequest{
		Source: "doc.pdf",
		Texts:  []string{"some page text"},
	})
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "nothing may be stored when embedding fails")
}
