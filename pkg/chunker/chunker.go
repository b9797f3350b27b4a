package chunker

import "errors"

// DefaultChunkSize is the chunk width, in runes, used at ingestion time.
const DefaultChunkSize = 1000

var ErrInvalidSize = errors.New("chunk size must be positive")

type TextChunk struct {
	Content string
	Index   int
	Start   int // rune offset, inclusive
	End     int // rune offset, exclusive
}

// Split slices text into contiguous, non-overlapping chunks of exactly size
// runes; only the last chunk may be shorter. Concatenating the chunks in
// Index order yields text again. No sentence or paragraph boundaries are
// considered.
func Split(text string, size int) ([]TextChunk, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if text == "" {
		return []TextChunk{}, nil
	}

	runes := []rune(text)
	chunks := make([]TextChunk, 0, (len(runes)+size-1)/size)

	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, TextChunk{
			Content: string(runes[start:end]),
			Index:   len(chunks),
			Start:   start,
			End:     end,
		})
	}

	return chunks, nil
}
