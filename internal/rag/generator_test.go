package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptFormat(t *testing.T) {
	chunks := []RetrievedChunk{
		{Text: "alpha", Source: "doc.pdf", Score: 0.9},
		{Text: "beta", Source: "talk.mp3", Score: 0.5},
	}

	want := `Answer the question using the provided context. If the context does not contain relevant information, say you don't know.

Context:
[Source: doc.pdf]
alpha

[Source: talk.mp3]
beta

Question: What happened?

Answer:`

	assert.Equal(t, want, buildPrompt("What happened?", chunks))
}

func TestGenerateReturnsModelReply(t *testing.T) {
	gw := &fakeGateway{chatReply: "grounded answer"}
	g := NewGenerator(gw, "ollama", "llama3.1:8b")

	answer, err := g.Generate(context.Background(), "q", []RetrievedChunk{
		{Text: "context", Source: "doc.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	assert.Equal(t, 1, gw.calls())
}

func TestGenerateErrorTagged(t *testing.T) {
	gw := &fakeGateway{chatErr: errors.New("timeout")}
	g := NewGenerator(gw, "", "")

	_, err := g.Generate(context.Background(), "q", []RetrievedChunk{{Text: "c", Source: "s"}})
	require.Error(t, err)
	assert.Equal(t, KindGeneration, KindOf(err))
}
