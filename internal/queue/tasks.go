package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	TypeDocumentIngest  = "document:ingest"
	TypeDocumentReindex = "document:reindex"
)

type DocumentPayload struct {
	DocumentID string `json:"document_id"`
}

// ParseDocumentPayload decodes a document task payload and its id.
func ParseDocumentPayload(data []byte) (uuid.UUID, error) {
	var p DocumentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	id, err := uuid.Parse(p.DocumentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse document ID: %w", err)
	}
	return id, nil
}
