package indexer

import "io"

// Chunk is a token-bounded slice of a source document. The ID is derived
// from the text content alone, so identical text from any source collapses
// to one stored record.
type Chunk struct {
	ID     string
	Text   string
	Source string
}

// File is an uploaded document to ingest.
type File struct {
	Name   string
	Reader io.Reader
}

// FileFailure reports a file that could not be processed.
type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestStats reports the outcome of an ingestion batch. Duplicate skips are
// an expected outcome, not an error.
type IngestStats struct {
	TotalFiles  int           `json:"total_files"`
	TotalChunks int           `json:"total_chunks"`
	Added       int           `json:"added"`
	Skipped     int           `json:"skipped"`
	Failed      []FileFailure `json:"failed_files,omitempty"`
}
