package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nam-htran/DomainAIAgent/internal/indexer"
)

// stubIngestor implements Ingestor with a canned function.
type stubIngestor struct {
	ingest func(ctx context.Context, files []indexer.File) (indexer.IngestStats, error)
}

func (s *stubIngestor) Ingest(ctx context.Context, files []indexer.File) (indexer.IngestStats, error) {
	return s.ingest(ctx, files)
}

// multipartUpload builds a multipart body with one part per file under the
// "files" field.
func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestIngestHandlerUpload(t *testing.T) {
	var gotFiles []indexer.File
	var gotContents []string
	handler := NewIngestHandler(&stubIngestor{
		ingest: func(_ context.Context, files []indexer.File) (indexer.IngestStats, error) {
			gotFiles = files
			for _, f := range files {
				data, err := io.ReadAll(f.Reader)
				if err != nil {
					t.Fatalf("read uploaded file: %v", err)
				}
				gotContents = append(gotContents, string(data))
			}
			return indexer.IngestStats{TotalFiles: len(files), TotalChunks: 3, Added: 2, Skipped: 1}, nil
		},
	})

	body, contentType := multipartUpload(t, map[string]string{
		"notes.txt": "some notes",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(gotFiles) != 1 || gotFiles[0].Name != "notes.txt" {
		t.Fatalf("pipeline got files %+v", gotFiles)
	}
	if gotContents[0] != "some notes" {
		t.Errorf("uploaded content = %q", gotContents[0])
	}

	var stats indexer.IngestStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Added != 2 || stats.Skipped != 1 || stats.TotalChunks != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestIngestHandlerReportsPerFileFailures(t *testing.T) {
	handler := NewIngestHandler(&stubIngestor{
		ingest: func(_ context.Context, files []indexer.File) (indexer.IngestStats, error) {
			return indexer.IngestStats{
				TotalFiles: len(files),
				Failed:     []indexer.FileFailure{{Name: "bad.xyz", Reason: "unsupported file format"}},
			}, nil
		},
	})

	body, contentType := multipartUpload(t, map[string]string{"bad.xyz": "data"})
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var stats indexer.IngestStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(stats.Failed) != 1 || stats.Failed[0].Name != "bad.xyz" {
		t.Errorf("unexpected failures: %+v", stats.Failed)
	}
}

func TestIngestHandlerRejectsEmptyUpload(t *testing.T) {
	handler := NewIngestHandler(&stubIngestor{
		ingest: func(context.Context, []indexer.File) (indexer.IngestStats, error) {
			t.Error("pipeline must not be called")
			return indexer.IngestStats{}, nil
		},
	})

	body, contentType := multipartUpload(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestIngestHandlerRejectsNonMultipart(t *testing.T) {
	handler := NewIngestHandler(&stubIngestor{
		ingest: func(context.Context, []indexer.File) (indexer.IngestStats, error) {
			t.Error("pipeline must not be called")
			return indexer.IngestStats{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestIngestHandlerPipelineFailure(t *testing.T) {
	handler := NewIngestHandler(&stubIngestor{
		ingest: func(context.Context, []indexer.File) (indexer.IngestStats, error) {
			return indexer.IngestStats{}, errors.New("vector store down")
		},
	})

	body, contentType := multipartUpload(t, map[string]string{"a.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
