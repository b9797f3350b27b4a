package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/pkg/textextract"
)

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileType string) (string, error)
	SupportedTypes() []string
}

type extractor struct{}

func NewTextExtractor() TextExtractor {
	return extractor{}
}

// Extract returns the document text. Unsupported types and files with no
// extractable text are input errors.
func (extractor) Extract(ctx context.Context, data []byte, fileType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), fileType)
	if errors.Is(err, textextract.ErrUnsupportedType) {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	content := strings.TrimSpace(result.Content)
	if content == "" {
		return "", fmt.Errorf("%w: no extractable text in %s file", models.ErrInvalidInput, fileType)
	}
	return content, nil
}

func (extractor) SupportedTypes() []string {
	return textextract.SupportedTypes()
}
