package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_reranker.go -package=mocks github.com/nam-htran/DomainAIAgent/internal/rag Reranker

import (
	"context"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
	"github.com/nam-htran/DomainAIAgent/internal/llm"
	"github.com/nam-htran/DomainAIAgent/internal/rerank"
	"github.com/nam-htran/DomainAIAgent/internal/session"
	"github.com/nam-htran/DomainAIAgent/internal/vectorstore"
)

// Reranker reorders candidate documents by cross-query relevance and
// returns at most topN of them as indices into the input.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]rerank.Result, error)
}

// Engine answers questions over the ingested document corpus.
type Engine interface {
	// Answer runs one query through the pipeline:
	// rewrite → embed → retrieve → rerank → decide → generate → suggest.
	// turns is the prior conversation; the new query is not part of it.
	Answer(ctx context.Context, turns []session.Turn, query string) (AnswerResponse, error)
}

// Options configures the answer pipeline.
type Options struct {
	// AnswerModel generates the final answer.
	AnswerModel string
	// UtilityModel handles query rewriting and follow-up suggestions.
	UtilityModel string
	// TopK is the retrieval width (recall stage).
	TopK int
	// TopN is the rerank width (precision stage), TopN <= TopK.
	TopN int
}

// decision is the branch taken at the DECIDE stage.
type decision int

const (
	decisionFallback decision = iota // no relevant document, answer from general knowledge
	decisionGrounded                 // answer strictly from retrieved context
)

// ragEngine implements Engine.
type ragEngine struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	reranker    Reranker
	generator   llm.Generator
	opts        Options
}

// NewEngine creates an answer engine. The generator and embedder are
// expected to be the cache-wrapped variants so repeated identical calls cost
// nothing.
func NewEngine(
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	reranker Reranker,
	generator llm.Generator,
	opts Options,
) Engine {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.TopN <= 0 || opts.TopN > opts.TopK {
		opts.TopN = min(5, opts.TopK)
	}
	if opts.UtilityModel == "" {
		opts.UtilityModel = opts.AnswerModel
	}
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		reranker:    reranker,
		generator:   generator,
		opts:        opts,
	}
}

// Answer runs the per-query state machine. The stages execute strictly in
// order; retrieval and reranking are data-dependent and cannot overlap.
func (e *ragEngine) Answer(ctx context.Context, turns []session.Turn, query string) (AnswerResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// REWRITE: only when history exists; the first turn has nothing to
	// resolve references against.
	standalone := query
	if len(turns) > 0 {
		rewritten, err := e.rewriteStandalone(ctx, turns, query)
		if err != nil {
			return AnswerResponse{}, err
		}
		standalone = rewritten
	}
	logger.InfoContext(ctx, "stage rewrite done", "query", query, "standalone", standalone)

	// EMBED
	vectors, err := e.embedder.EmbedTexts(ctx, []string{standalone})
	if err != nil {
		return AnswerResponse{}, externalErr("embed", err)
	}
	if len(vectors) == 0 {
		return AnswerResponse{}, externalErr("embed", errNoEmbedding)
	}

	// RETRIEVE: wide, recall-oriented. An empty index is a defined outcome.
	hits, err := e.vectorStore.Search(ctx, e.collection, vectors[0], e.opts.TopK)
	if err != nil {
		return AnswerResponse{}, externalErr("retrieve", err)
	}
	logger.InfoContext(ctx, "stage retrieve done", "hits", len(hits), "top_k", e.opts.TopK)

	// RERANK: narrow, precision-oriented. Skipped entirely on zero hits so
	// no external call is wasted on a known-empty batch.
	var citations []Citation
	if len(hits) > 0 {
		texts := make([]string, len(hits))
		for i, hit := range hits {
			texts[i], _ = hit.Payload["text"].(string)
		}

		results, err := e.reranker.Rerank(ctx, standalone, texts, e.opts.TopN)
		if err != nil {
			return AnswerResponse{}, externalErr("rerank", err)
		}

		citations = make([]Citation, 0, len(results))
		for rank, r := range results {
			source, _ := hits[r.Index].Payload["source"].(string)
			citations = append(citations, Citation{
				Source: source,
				Text:   texts[r.Index],
				Score:  r.Score,
				Rank:   rank + 1,
			})
		}
		logger.InfoContext(ctx, "stage rerank done", "candidates", len(hits), "kept", len(citations))
	}

	// DECIDE
	branch := decisionGrounded
	if len(citations) == 0 {
		branch = decisionFallback
	}

	// GENERATE
	var prompt, systemPrompt string
	switch branch {
	case decisionFallback:
		logger.InfoContext(ctx, "stage decide: fallback, no grounding document found")
		systemPrompt = fallbackSystemPrompt
		prompt = standalone
	case decisionGrounded:
		logger.InfoContext(ctx, "stage decide: grounded", "documents", len(citations))
		texts := make([]string, len(citations))
		for i, c := range citations {
			texts[i] = c.Text
		}
		systemPrompt = groundedSystemPrompt
		prompt = buildGroundedPrompt(texts, standalone)
	}

	answer, err := e.generator.Generate(ctx, prompt, systemPrompt, e.opts.AnswerModel)
	if err != nil {
		return AnswerResponse{}, externalErr("generate", err)
	}

	// SUGGEST (terminal)
	followUps := e.suggestFollowUps(ctx, answer)

	logger.InfoContext(ctx, "answer completed",
		"grounded", branch == decisionGrounded,
		"citations", len(citations),
		"followups", len(followUps),
	)

	return AnswerResponse{
		StandaloneQuery: standalone,
		Answer:          answer,
		Grounded:        branch == decisionGrounded,
		Citations:       citations,
		FollowUps:       followUps,
	}, nil
}
