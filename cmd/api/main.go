package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/nam-htran/DomainAIAgent/internal/cache"
	"github.com/nam-htran/DomainAIAgent/internal/config"
	"github.com/nam-htran/DomainAIAgent/internal/http"
	"github.com/nam-htran/DomainAIAgent/internal/indexer"
	"github.com/nam-htran/DomainAIAgent/internal/llm"
	"github.com/nam-htran/DomainAIAgent/internal/parser"
	"github.com/nam-htran/DomainAIAgent/internal/rag"
	"github.com/nam-htran/DomainAIAgent/internal/rerank"
	"github.com/nam-htran/DomainAIAgent/internal/session"
	"github.com/nam-htran/DomainAIAgent/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Call cache: every external model call goes through it, so identical
	// prompts and texts are paid for once.
	var callCache cache.Store
	switch cfg.CacheBackend {
	case "fs":
		fsStore, err := cache.NewFSStore(cfg.CacheDir)
		if err != nil {
			log.Fatalf("Failed to open cache directory: %v", err)
		}
		callCache = fsStore
		slog.Info("Call cache initialized", "backend", "fs", "dir", cfg.CacheDir)
	default:
		sqliteStore, err := cache.NewSQLiteStore(cfg.CacheDBPath)
		if err != nil {
			log.Fatalf("Failed to open cache database: %v", err)
		}
		defer func() {
			_ = sqliteStore.Close()
		}()
		callCache = sqliteStore
		slog.Info("Call cache initialized", "backend", "sqlite", "path", cfg.CacheDBPath)
	}

	// Initialize Qdrant vector store
	ctx := context.Background()
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Embedding client, wrapped so repeated texts hit the cache.
	embedder := llm.NewCachedEmbedder(
		llm.NewEmbeddingsClient(cfg.EmbedBaseURL, cfg.EmbedAPIKey, cfg.EmbedModel, cfg.QdrantVectorSize),
		callCache,
		cfg.EmbedModel,
	)

	// Chat client, same treatment.
	generator := llm.NewCachedGenerator(
		llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey),
		callCache,
	)

	reranker := rerank.NewClient(cfg.RerankBaseURL, cfg.RerankAPIKey, cfg.RerankModel)

	// Create indexing pipeline
	chunker, err := indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create chunker: %v", err)
	}
	pipeline := indexer.NewPipeline(
		parser.New(),
		chunker,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.DedupFailOpen,
	)
	slog.Info("Ingestion pipeline initialized", "chunk_size", cfg.ChunkSize, "chunk_overlap", cfg.ChunkOverlap)

	// Create answer engine
	engine := rag.NewEngine(
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		reranker,
		generator,
		rag.Options{
			AnswerModel:  cfg.LLMModel,
			UtilityModel: cfg.LLMUtilityModel,
			TopK:         cfg.RetrieveTopK,
			TopN:         cfg.RerankTopN,
		},
	)
	slog.Info("Answer engine initialized", "top_k", cfg.RetrieveTopK, "top_n", cfg.RerankTopN)

	// Create router with dependencies
	router := http.NewRouter(&http.Deps{
		Engine:      engine,
		Pipeline:    pipeline,
		Sessions:    session.NewStore(),
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel, "utility_model", cfg.LLMUtilityModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
