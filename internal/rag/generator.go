package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdocs/askdocs/internal/llm"
)

const answerPrompt = `Answer the question using the provided context. If the context does not contain relevant information, say you don't know.

Context:
%s

Question: %s

Answer:`

// Generator turns a question plus retrieved context into a grounded answer.
type Generator struct {
	gateway  llm.Gateway
	provider string
	model    string
}

func NewGenerator(gw llm.Gateway, provider, model string) *Generator {
	return &Generator{gateway: gw, provider: provider, model: model}
}

func (g *Generator) Generate(ctx context.Context, question string, chunks []RetrievedChunk) (string, error) {
	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Provider: g.provider,
		Model:    g.model,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(question, chunks)},
		},
	})
	if err != nil {
		return "", newError(KindGeneration, "generate answer: %w", err)
	}
	return resp.Content, nil
}

func buildPrompt(question string, chunks []RetrievedChunk) string {
	return fmt.Sprintf(answerPrompt, buildContext(chunks), question)
}

func buildContext(chunks []RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.Source, c.Text)
	}
	return strings.Join(parts, "\n\n")
}
