package rag

import (
	"github.com/nikhilbhutani/studybrain/pkg/chunker"
)

type ChunkResult struct {
	Content    string
	Index      int
	TokenCount int
}

// ChunkText splits text into fixed-width chunks and counts the tokens of
// each.
func ChunkText(text string, size int, count TokenCounter) ([]ChunkResult, error) {
	chunks, err := chunker.Split(text, size)
	if err != nil {
		return nil, err
	}

	results := make([]ChunkResult, len(chunks))
	for i, ch := range chunks {
		results[i] = ChunkResult{
			Content:    ch.Content,
			Index:      ch.Index,
			TokenCount: count(ch.Content),
		}
	}
	return results, nil
}
