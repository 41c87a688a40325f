package handlers

import (
	"context"
	"net/http"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
	"github.com/nam-htran/DomainAIAgent/internal/indexer"
)

// maxIngestMemory bounds how much of a multipart upload is buffered in
// memory before spilling to temp files.
const maxIngestMemory = 32 << 20 // 32 MiB

// Ingestor runs uploaded documents through the indexing pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, files []indexer.File) (indexer.IngestStats, error)
}

// IngestHandler handles HTTP requests for document ingestion.
type IngestHandler struct {
	pipeline Ingestor
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(pipeline Ingestor) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// ServeHTTP accepts a multipart upload under the "files" field and runs every
// file through parse, chunk, dedup, embed and upsert. Per-file failures are
// reported in the stats rather than failing the batch.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxIngestMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		logger.WarnContext(ctx, "no files in upload")
		writeError(ctx, w, http.StatusBadRequest, "At least one file is required")
		return
	}

	files := make([]indexer.File, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			logger.ErrorContext(ctx, "failed to open uploaded file", "file", header.Filename, "error", err)
			writeError(ctx, w, http.StatusInternalServerError, "Failed to read uploaded files")
			return
		}
		defer f.Close()
		files = append(files, indexer.File{Name: header.Filename, Reader: f})
	}

	stats, err := h.pipeline.Ingest(ctx, files)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "files", len(files), "error", err)
		writeError(ctx, w, http.StatusBadGateway, "Failed to ingest documents")
		return
	}

	logger.InfoContext(ctx, "ingestion completed",
		"files", stats.TotalFiles,
		"chunks", stats.TotalChunks,
		"added", stats.Added,
		"skipped", stats.Skipped,
		"failed", len(stats.Failed),
	)
	writeJSON(ctx, w, http.StatusOK, stats)
}
