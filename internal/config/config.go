package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// LLM endpoints (OpenAI-compatible chat completions / embeddings APIs).
	LLMBaseURL      string
	LLMAPIKey       string
	LLMModel        string
	LLMUtilityModel string // cheaper model for query rewriting and follow-up suggestions
	EmbedBaseURL    string
	EmbedAPIKey     string
	EmbedModel      string

	// Reranker endpoint (Cohere-compatible /v1/rerank API).
	RerankBaseURL string
	RerankAPIKey  string
	RerankModel   string

	// Qdrant vector index.
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	// Chunking.
	ChunkSize    int
	ChunkOverlap int

	// Retrieval widths: retrieve wide, rerank narrow.
	RetrieveTopK int
	RerankTopN   int

	// Call cache.
	CacheBackend string // "sqlite" or "fs"
	CacheDBPath  string
	CacheDir     string

	// Dedup existence-check failure policy. Fail-open re-ingests chunks it
	// cannot verify; fail-closed aborts the batch with the error.
	DedupFailOpen bool

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the current directory or a parent directory is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	loadDotenv()

	cfg := &Config{
		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://openrouter.ai/api"),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "deepseek/deepseek-chat-v3-0324:free"),
		LLMUtilityModel: getEnv("LLM_UTILITY_MODEL", ""),
		EmbedBaseURL:    getEnv("EMBEDDING_BASE_URL", "https://api.cohere.ai/compatibility"),
		EmbedAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
		EmbedModel:      getEnv("EMBEDDING_MODEL", "embed-v4.0-light-auto"),

		RerankBaseURL: getEnv("RERANK_BASE_URL", "https://api.cohere.ai"),
		RerankAPIKey:  getEnv("RERANK_API_KEY", ""),
		RerankModel:   getEnv("RERANK_MODEL", "rerank-multilingual-v3.0"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),

		CacheBackend: getEnv("CACHE_BACKEND", "sqlite"),
		CacheDBPath:  getEnv("CACHE_DB_PATH", "./data/callcache.db"),
		CacheDir:     getEnv("CACHE_DIR", "./data/cache"),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.LLMUtilityModel == "" {
		cfg.LLMUtilityModel = cfg.LLMModel
	}
	if cfg.EmbedAPIKey == "" {
		cfg.EmbedAPIKey = cfg.LLMAPIKey
	}

	// QDRANT_VECTOR_SIZE must match the embedding model's output dimension.
	// If it changes, the Qdrant collection has to be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 400); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 50); err != nil {
		return nil, err
	}
	if cfg.RetrieveTopK, err = getEnvInt("RETRIEVE_TOP_K", 10); err != nil {
		return nil, err
	}
	if cfg.RerankTopN, err = getEnvInt("RERANK_TOP_N", 5); err != nil {
		return nil, err
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be less than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	switch cfg.CacheBackend {
	case "sqlite", "fs":
	default:
		return nil, fmt.Errorf("CACHE_BACKEND must be \"sqlite\" or \"fs\", got %q", cfg.CacheBackend)
	}

	failOpenStr := getEnv("DEDUP_FAIL_OPEN", "true")
	cfg.DedupFailOpen, err = strconv.ParseBool(failOpenStr)
	if err != nil {
		return nil, fmt.Errorf("DEDUP_FAIL_OPEN must be a boolean: %w", err)
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// Make sure the data directory exists for the cache backends.
	dataDir := filepath.Dir(cfg.CacheDBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotenv loads a .env file from the current directory, or walks up a few
// levels looking for one at the project root.
func loadDotenv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
