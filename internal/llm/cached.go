package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks github.com/nam-htran/DomainAIAgent/internal/llm Generator,Embedder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nam-htran/DomainAIAgent/internal/cache"
	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
)

// Generator produces a chat completion for a prompt under a system prompt
// and an explicit model identifier.
type Generator interface {
	Generate(ctx context.Context, prompt, systemPrompt, model string) (string, error)
}

// Embedder produces one embedding vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CachedGenerator memoizes Generate calls in a cache.Store. The key covers
// the prompt, the system prompt and the model identifier, so any parameter
// that can change the output changes the key.
type CachedGenerator struct {
	inner Generator
	store cache.Store
}

// NewCachedGenerator wraps a Generator with the call cache.
func NewCachedGenerator(inner Generator, store cache.Store) *CachedGenerator {
	return &CachedGenerator{inner: inner, store: store}
}

// Generate returns the cached completion when the identical call was made
// before, otherwise invokes the inner generator and stores the result.
// Cache read/write failures are logged and degrade to an uncached call:
// the cache saves cost, it never gates correctness.
func (g *CachedGenerator) Generate(ctx context.Context, prompt, systemPrompt, model string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)
	key := cache.Key("generate", model, systemPrompt, prompt)

	if value, ok, err := g.store.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "cache read failed, calling through", "error", err)
	} else if ok {
		logger.DebugContext(ctx, "generation cache hit", "model", model)
		return string(value), nil
	}

	result, err := g.inner.Generate(ctx, prompt, systemPrompt, model)
	if err != nil {
		return "", err
	}

	if err := g.store.Put(ctx, key, []byte(result)); err != nil {
		logger.WarnContext(ctx, "cache write failed", "error", err)
	}
	return result, nil
}

// CachedEmbedder memoizes embeddings per text. Texts with cached vectors are
// served from the store; only the misses go to the inner embedder, in one
// batched call.
type CachedEmbedder struct {
	inner Embedder
	store cache.Store
	model string
}

// NewCachedEmbedder wraps an Embedder with the call cache. model must be the
// identifier of the embedding model behind inner; it is part of every key.
func NewCachedEmbedder(inner Embedder, store cache.Store, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, model: model}
}

// EmbedTexts returns one vector per input text, in input order.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	logger := contextutil.LoggerFromContext(ctx)
	result := make([][]float32, len(texts))

	var missTexts []string
	var missIndexes []int
	for i, text := range texts {
		key := cache.Key("embed", e.model, text)
		value, ok, err := e.store.Get(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "cache read failed, calling through", "error", err)
		} else if ok {
			var vec []float32
			if err := json.Unmarshal(value, &vec); err == nil {
				result[i] = vec
				continue
			}
			logger.WarnContext(ctx, "corrupt cached embedding, recomputing", "key", key)
		}
		missTexts = append(missTexts, text)
		missIndexes = append(missIndexes, i)
	}

	logger.DebugContext(ctx, "embedding cache lookup", "total", len(texts), "misses", len(missTexts))

	if len(missTexts) == 0 {
		return result, nil
	}

	vectors, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missTexts), len(vectors))
	}

	for j, vec := range vectors {
		result[missIndexes[j]] = vec

		value, err := json.Marshal(vec)
		if err != nil {
			logger.WarnContext(ctx, "failed to encode embedding for cache", "error", err)
			continue
		}
		key := cache.Key("embed", e.model, missTexts[j])
		if err := e.store.Put(ctx, key, value); err != nil {
			logger.WarnContext(ctx, "cache write failed", "error", err)
		}
	}

	return result, nil
}
