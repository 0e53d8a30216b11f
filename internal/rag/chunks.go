package rag

import (
	"regexp"
	"strings"

	"github.com/askdocs/askdocs/pkg/chunker"
)

// Chunk is the unit of indexed text: a token-bounded span plus where it
// came from. OriginalIndex is the position of the source text in the input
// sequence (the page number for PDFs); ChunkIndex is the 0-based ordinal
// among the chunks emitted for that source text.
type Chunk struct {
	Text          string
	Source        string
	OriginalIndex int
	ChunkIndex    int
}

// Page numbers bleed into extracted text as a leading digit run.
var leadingPageNumber = regexp.MustCompile(`^\d+\s*`)

// ChunkPages splits each source text into token-bounded chunks, preserving
// input order: texts in sequence order, chunks in split order. Empty texts
// yield no chunks.
func ChunkPages(texts []string, source string, opts chunker.ChunkOptions) []Chunk {
	c := chunker.New()

	var out []Chunk
	for idx, text := range texts {
		chunkIdx := 0
		for _, tc := range c.Chunk(text, opts) {
			cleaned := leadingPageNumber.ReplaceAllString(tc.Content, "")
			if strings.TrimSpace(cleaned) == "" {
				continue
			}
			out = append(out, Chunk{
				Text:          cleaned,
				Source:        source,
				OriginalIndex: idx,
				ChunkIndex:    chunkIdx,
			})
			chunkIdx++
		}
	}
	return out
}
