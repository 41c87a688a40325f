package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks github.com/nam-htran/DomainAIAgent/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with its payload.
type Point struct {
	ID      string
	Vec     []float32
	Payload map[string]any
}

// SearchResult represents a single hit from a similarity search.
type SearchResult struct {
	PointID string
	Score   float32
	Payload map[string]any
}

// VectorStore defines the operations the pipeline needs from the vector index.
type VectorStore interface {
	// EnsureCollection creates the collection with the given vector size if
	// it does not exist, and validates the size if it does.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// CollectionExists reports whether the collection is present.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Exists returns the subset of ids that are already stored, in one
	// batched call.
	Exists(ctx context.Context, collection string, ids []string) (map[string]struct{}, error)

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns up to k stored points ordered by descending similarity.
	// An empty collection yields an empty result, not an error.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)
}
