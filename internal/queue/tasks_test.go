package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentPayload(t *testing.T) {
	id := uuid.New()
	data, err := json.Marshal(DocumentPayload{DocumentID: id.String()})
	require.NoError(t, err)

	got, err := ParseDocumentPayload(data)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseDocumentPayload([]byte(`{"document_id":"nope"}`))
	assert.Error(t, err)

	_, err = ParseDocumentPayload([]byte(`not json`))
	assert.Error(t, err)
}
