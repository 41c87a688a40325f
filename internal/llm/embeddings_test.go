package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingsServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		resp := EmbeddingsResponse{Data: make([]EmbeddingData, len(req.Input))}
		for i := range req.Input {
			vec := make([]float64, dim)
			vec[0] = float64(i + 1)
			resp.Data[i] = EmbeddingData{Embedding: vec}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedTexts(t *testing.T) {
	server := embeddingsServer(t, 4)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "embed-model", 4)
	vectors, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Errorf("vectors out of input order: %v", vectors)
	}
	if len(vectors[0]) != 4 {
		t.Errorf("vector size = %d, want 4", len(vectors[0]))
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://unused", "key", "m", 4)
	if _, err := client.EmbedTexts(context.Background(), nil); err == nil {
		t.Fatal("EmbedTexts() succeeded on empty input")
	}
}

func TestEmbedTextsSizeMismatch(t *testing.T) {
	server := embeddingsServer(t, 4)
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "m", 8)
	if _, err := client.EmbedTexts(context.Background(), []string{"text"}); err == nil {
		t.Fatal("EmbedTexts() succeeded despite dimension mismatch")
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []EmbeddingData{{Embedding: []float64{0, 0}}},
		})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "m", 2)
	if _, err := client.EmbedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("EmbedTexts() succeeded despite count mismatch")
	}
}
