package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
	"github.com/nam-htran/DomainAIAgent/internal/llm"
	"github.com/nam-htran/DomainAIAgent/internal/parser"
	"github.com/nam-htran/DomainAIAgent/internal/vectorstore"
)

// Pipeline ingests uploaded documents: parse, chunk, derive content ids,
// drop already-stored chunks, embed the remainder and persist them to the
// vector index.
type Pipeline struct {
	parser      *parser.Parser
	chunker     *Chunker
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	failOpen    bool
}

// NewPipeline creates an ingestion pipeline. failOpen selects the policy for
// existence-check failures: true treats an unreachable index as "nothing
// exists" and re-ingests, false aborts the batch with the error.
func NewPipeline(
	p *parser.Parser,
	chunker *Chunker,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	failOpen bool,
) *Pipeline {
	return &Pipeline{
		parser:      p,
		chunker:     chunker,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		failOpen:    failOpen,
	}
}

// Ingest processes a batch of files. Per-file parse failures are reported in
// the stats and do not abort the batch; embedding and persistence failures
// do, so no chunk is ever reported as added before its upsert returned.
func (p *Pipeline) Ingest(ctx context.Context, files []File) (IngestStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	stats := IngestStats{TotalFiles: len(files)}

	// Parse and chunk everything first; ids for the whole batch go to the
	// index in one existence query.
	var candidates []Chunk
	seen := make(map[string]struct{})
	for _, file := range files {
		text, err := p.parser.Parse(file.Name, file.Reader)
		if err != nil {
			if errors.Is(err, parser.ErrUnsupportedFormat) {
				logger.WarnContext(ctx, "skipping unsupported file", "file", file.Name)
			} else {
				logger.ErrorContext(ctx, "failed to parse file", "file", file.Name, "error", err)
			}
			stats.Failed = append(stats.Failed, FileFailure{Name: file.Name, Reason: err.Error()})
			continue
		}

		for chunkText := range p.chunker.Chunks(text) {
			stats.TotalChunks++
			id := ChunkID(chunkText)
			if _, dup := seen[id]; dup {
				// Identical text earlier in this batch already owns the record.
				stats.Skipped++
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, Chunk{ID: id, Text: chunkText, Source: file.Name})
		}
	}

	if len(candidates) == 0 {
		return stats, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	existing, err := p.vectorStore.Exists(ctx, p.collection, ids)
	if err != nil {
		if !p.failOpen {
			return IngestStats{}, fmt.Errorf("existence check failed (fail-closed): %w", err)
		}
		// Fail-open: favor availability over storage efficiency and
		// re-ingest what we cannot verify.
		logger.WarnContext(ctx, "existence check failed, re-ingesting unverified chunks", "error", err, "count", len(ids))
		existing = map[string]struct{}{}
	}

	var newChunks []Chunk
	for _, c := range candidates {
		if _, ok := existing[c.ID]; ok {
			stats.Skipped++
			continue
		}
		newChunks = append(newChunks, c)
	}

	if len(newChunks) == 0 {
		logger.InfoContext(ctx, "ingestion found no new chunks", "total", stats.TotalChunks, "skipped", stats.Skipped)
		return stats, nil
	}

	texts := make([]string, len(newChunks))
	for i, c := range newChunks {
		texts[i] = c.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return IngestStats{}, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(newChunks) {
		return IngestStats{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(newChunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(newChunks))
	for i, c := range newChunks {
		points[i] = vectorstore.Point{
			ID:  c.ID,
			Vec: embeddings[i],
			Payload: map[string]any{
				"text":   c.Text,
				"source": c.Source,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return IngestStats{}, fmt.Errorf("failed to persist chunks: %w", err)
	}

	stats.Added = len(newChunks)
	logger.InfoContext(ctx, "ingestion completed",
		"files", stats.TotalFiles,
		"chunks", stats.TotalChunks,
		"added", stats.Added,
		"skipped", stats.Skipped,
		"failed_files", len(stats.Failed),
	)
	return stats, nil
}
