package rag

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs/internal/llm"
)

const transcriptSystemPrompt = `You are an expert analyst summarizing presentation transcripts.
Extract only meaningful and important information.`

const transcriptPrompt = `You are given a transcript of a presentation.

Ignore and remove:
- Technical checks (e.g., "Can you hear me?", "Can you see my screen?")
- Greetings, small talk, interruptions
- Filler words and repetitions
- Audience interaction unrelated to the topic

Focus only on:
- Key topics and objectives
- Important explanations and insights
- Data, metrics, and examples
- Conclusions, recommendations, and next steps

Do not invent information.

Transcript:
"""
%s
"""

Produce:
1. A concise summary
2. Bullet-point key takeaways`

// Summarizer refines raw presentation transcripts into summary plus
// takeaways, stripping technical checks and small talk.
type Summarizer struct {
	gateway  llm.Gateway
	provider string
	model    string
}

func NewSummarizer(gw llm.Gateway, provider, model string) *Summarizer {
	return &Summarizer{gateway: gw, provider: provider, model: model}
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Provider:    s.provider,
		Model:       s.model,
		Temperature: 0.2,
		Messages: []llm.Message{
			{Role: "system", Content: transcriptSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(transcriptPrompt, transcript)},
		},
	})
	if err != nil {
		return "", newError(KindGeneration, "summarize transcript: %w", err)
	}
	return resp.Content, nil
}
