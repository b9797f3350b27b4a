// Package app assembles the services shared by the API server and the
// ingestion worker.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/studybrain/internal/audit"
	"github.com/nikhilbhutani/studybrain/internal/cache"
	"github.com/nikhilbhutani/studybrain/internal/config"
	"github.com/nikhilbhutani/studybrain/internal/conversation"
	"github.com/nikhilbhutani/studybrain/internal/database"
	"github.com/nikhilbhutani/studybrain/internal/document"
	"github.com/nikhilbhutani/studybrain/internal/embedding"
	"github.com/nikhilbhutani/studybrain/internal/llm"
	"github.com/nikhilbhutani/studybrain/internal/rag"
	"github.com/nikhilbhutani/studybrain/internal/speech"
	"github.com/nikhilbhutani/studybrain/internal/storage"
	"github.com/nikhilbhutani/studybrain/internal/tutor"
	"github.com/nikhilbhutani/studybrain/internal/vectorstore"
	"github.com/nikhilbhutani/studybrain/pkg/tokenizer"
)

type App struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	// Cache is nil when Redis did not answer at startup.
	Cache *cache.Cache

	Documents document.Repository
	DocSvc    *document.Service
	Ingester  *rag.Ingester
	Linker    *rag.Linker
	Chat      *rag.ChatService
	Tutor     *tutor.Service
	Usage     audit.Recorder
	// Narrator is nil without an OpenAI key.
	Narrator *speech.Narrator
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{DB: db, Redis: cache.NewClient(cfg.Redis)}

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without embedding cache", "error", err)
	} else {
		a.Cache = cache.NewCache(a.Redis, "studybrain")
	}

	var files storage.Storage
	if cfg.Storage.SupabaseURL != "" {
		files = storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
	} else {
		slog.Warn("SUPABASE_URL not set, keeping uploaded files in memory")
		files = storage.NewMemoryStorage()
	}

	a.Usage = audit.NewPgRecorder(db)
	gw := audit.NewMeteredGateway(llm.NewGateway(cfg.LLM), a.Usage)

	var embedder embedding.Embedder = embedding.NewService(gw, embedding.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if a.Cache != nil && cfg.Embedding.CacheTTL > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, a.Cache, cfg.Embedding.Model,
			time.Duration(cfg.Embedding.CacheTTL)*time.Second)
	}

	docs := document.NewPgRepository(db)
	chunks := vectorstore.NewPgVectorStore(db, cfg.Embedding.Dimensions)
	messages := conversation.NewPgLog(db)

	retriever := rag.NewRetriever(chunks, embedder, rag.RetrieverConfig{
		TopK:       cfg.RAG.TopK,
		ProbeRunes: cfg.RAG.ProbeRunes,
	})
	builder := rag.NewContextBuilder(cfg.RAG.ContextMaxTokens, tokenizer.CountTokens)

	a.Documents = docs
	a.DocSvc = document.NewService(docs, chunks, messages, files, cfg.Storage.Bucket)
	a.Linker = rag.NewLinker(retriever, docs)
	a.Ingester = rag.NewIngester(docs, chunks, embedder, gw, a.Linker, tokenizer.CountTokens, rag.IngestConfig{
		ChunkSize:    cfg.RAG.ChunkSize,
		SummaryRunes: cfg.RAG.SummaryRunes,
		Model:        cfg.LLM.DefaultModel,
	})
	a.Chat = rag.NewChatService(docs, messages, retriever, builder, gw, cfg.LLM.DefaultModel)
	a.Tutor = tutor.NewService(docs, messages, retriever, builder, gw, tutor.Config{
		SessionLength:     cfg.Tutor.SessionLength,
		HistoryWindow:     cfg.Tutor.HistoryWindow,
		SourcePrefixRunes: cfg.Tutor.SourcePrefixRunes,
		Model:             cfg.LLM.DefaultModel,
	})

	if cfg.LLM.OpenAIKey != "" {
		synth := speech.NewOpenAISynthesizer(speech.OpenAIConfig{
			APIKey: cfg.LLM.OpenAIKey,
			Model:  cfg.Speech.Model,
			Voice:  cfg.Speech.Voice,
		})
		a.Narrator = speech.NewNarrator(docs, synth, files, cfg.Storage.Bucket)
	}

	slog.Info("services ready",
		"llm_provider", cfg.LLM.DefaultProvider,
		"embedding_model", cfg.Embedding.Model,
		"embedding_dimensions", cfg.Embedding.Dimensions,
		"embedding_cache", a.Cache != nil,
		"narration", a.Narrator != nil,
	)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
