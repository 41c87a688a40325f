package indexer

import "github.com/google/uuid"

// ChunkID derives the deterministic identifier for a chunk from its text
// content alone: a name-based UUID over the fixed DNS namespace. Byte-identical
// text always maps to the same ID regardless of source document or ingestion
// run, which is what makes deduplication reproducible.
func ChunkID(text string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(text)).String()
}
