package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ReconstructsInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
	}{
		{"exact multiple", strings.Repeat("abcd", 5), 4},
		{"short tail", "the quick brown fox jumps", 7},
		{"size larger than text", "tiny", 100},
		{"size one", "abc", 1},
		{"multibyte runes", "árvíztűrő tükörfúrógép ✓ 日本語", 5},
		{"whitespace only chunks kept", "a     \n\n     b", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.text, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.text, join(chunks))

			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				n := utf8.RuneCountInString(c.Content)
				if i < len(chunks)-1 {
					assert.Equal(t, tt.size, n, "chunk %d", i)
				} else {
					assert.LessOrEqual(t, n, tt.size)
					assert.Greater(t, n, 0)
				}
				assert.Equal(t, n, c.End-c.Start)
			}
		})
	}
}

func TestSplit_Offsets(t *testing.T) {
	chunks, err := Split("abcdefghij", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "efgh", chunks[1].Content)
	assert.Equal(t, "ij", chunks[2].Content)
	assert.Equal(t, 4, chunks[1].Start)
	assert.Equal(t, 10, chunks[2].End)
}

func TestSplit_Empty(t *testing.T) {
	for _, size := range []int{1, 10, DefaultChunkSize} {
		chunks, err := Split("", size)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_InvalidSize(t *testing.T) {
	_, err := Split("text", 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Split("text", -3)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	a, err := Split(text, 37)
	require.NoError(t, err)
	b, err := Split(text, 37)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func join(chunks []TextChunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Content)
	}
	return sb.String()
}
