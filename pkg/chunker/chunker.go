package chunker

import (
	"github.com/askdocs/askdocs/pkg/tokenizer"
)

type Chunker interface {
	Chunk(text string, opts ChunkOptions) []TextChunk
}

type ChunkOptions struct {
	MaxTokens int // hard upper bound on tokens per chunk
	Overlap   int // tokens shared between consecutive chunks
}

// TextChunk is a token-bounded slice of the source text. Start and End are
// byte offsets into the original string, so Content preserves the source's
// own spacing.
type TextChunk struct {
	Content string
	Index   int
	Start   int
	End     int
	Tokens  int
}

func DefaultOptions() ChunkOptions {
	return ChunkOptions{
		MaxTokens: 20,
		Overlap:   0,
	}
}

type tokenChunker struct{}

func New() Chunker {
	return &tokenChunker{}
}

func (c *tokenChunker) Chunk(text string, opts ChunkOptions) []TextChunk {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultOptions().MaxTokens
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.MaxTokens {
		opts.Overlap = 0
	}

	toks := tokenizer.Tokenize(text)
	if len(toks) == 0 {
		return nil
	}

	step := opts.MaxTokens - opts.Overlap
	var chunks []TextChunk
	idx := 0

	for start := 0; start < len(toks); start += step {
		end := start + opts.MaxTokens
		if end > len(toks) {
			end = len(toks)
		}

		chunks = append(chunks, TextChunk{
			Content: text[toks[start].Start:toks[end-1].End],
			Index:   idx,
			Start:   toks[start].Start,
			End:     toks[end-1].End,
			Tokens:  end - start,
		})
		idx++

		if end == len(toks) {
			break
		}
	}

	return chunks
}
