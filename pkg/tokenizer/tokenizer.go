package tokenizer

import "unicode"

// Token is a single tokenized span of the input, addressed by byte offsets
// so callers can slice the original string without losing its spacing.
type Token struct {
	Start int
	End   int
}

// Tokenize splits text into whitespace-delimited word tokens. Word tokens
// approximate the subword counts of sentence-embedding tokenizers closely
// enough for chunk budgeting; exact counts would need the model's own
// vocabulary.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Start: start, End: len(text)})
	}
	return tokens
}

// CountTokens returns the token count of text under the same scheme
// Tokenize uses.
func CountTokens(text string) int {
	return len(Tokenize(text))
}
