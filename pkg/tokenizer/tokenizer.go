package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// encoding loads the BPE ranks once. tiktoken-go fetches them over the
// network on first use, so a nil result is expected in offline environments.
func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(defaultEncoding)
		if err == nil {
			enc = e
		}
	})
	return enc
}

// CountTokens returns the cl100k token count for text, or a word-based
// estimate when the encoding is unavailable.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if e := encoding(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate is a rough count: ~4/3 tokens per word.
func Estimate(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return max(len(words)*4/3, 1)
}
