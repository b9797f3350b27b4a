package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/embedding"
	"github.com/nikhilbhutani/studybrain/internal/llm/llmtest"
	"github.com/nikhilbhutani/studybrain/internal/models"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/tokenizer"
)

const testDims = 64

type fixture struct {
	gw        *llmtest.Gateway
	docs      *document.MemoryRepository
	chunks    *vectorstore.MemoryStore
	messages  *conversation.MemoryLog
	retriever *Retriever
	linker    *Linker
	ingester  *Ingester
	chat      *ChatService
}

func newFixture(t *testing.T, chunkSize int) *fixture {
	t.Helper()

	f := &fixture{
		gw:       llmtest.New(testDims),
		docs:     document.NewMemoryRepository(),
		chunks:   vectorstore.NewMemoryStore(testDims),
		messages: conversation.NewMemoryLog(),
	}
	f.gw.Default = &llmtest.Reply{Content: "generated"}

	embedder := embedding.NewService(f.gw, embedding.Config{Model: "test-embed", Dimensions: testDims})
	f.retriever = NewRetriever(f.chunks, embedder, RetrieverConfig{})
	f.linker = NewLinker(f.retriever, f.docs)
	f.ingester = NewIngester(f.docs, f.chunks, embedder, f.gw, f.linker, tokenizer.Estimate,
		IngestConfig{ChunkSize: chunkSize, SummaryRunes: 100})
	f.chat = NewChatService(f.docs, f.messages, f.retriever, NewContextBuilder(6000, tokenizer.Estimate), f.gw, "test-model")
	return f
}

func (f *fixture) newDoc(t *testing.T, owner uuid.UUID, name, content string) *models.Document {
	t.Helper()
	doc := &models.Document{OwnerID: owner, Filename: name, FileType: "txt", Content: content}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}

func (f *fixture) ingest(t *testing.T, owner uuid.UUID, name, content string) *models.Document {
	t.Helper()
	doc := f.newDoc(t, owner, name, content)
	_, err := f.ingester.Ingest(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

var errProvider = errors.New("provider quota exceeded")

func repeatWords(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}
