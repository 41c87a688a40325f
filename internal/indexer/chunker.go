package indexer

import (
	"fmt"
	"iter"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// ConfigError reports an invalid chunker configuration. It is fatal: the
// chunker refuses to construct rather than loop forever at ingestion time.
type ConfigError struct {
	ChunkSize int
	Overlap   int
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunker config (size=%d, overlap=%d): %s", e.ChunkSize, e.Overlap, e.Reason)
}

// tokenCodec abstracts the BPE encoding so tests can substitute a
// deterministic tokenizer.
type tokenCodec interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Chunker splits raw text into overlapping token-bounded chunks using the
// cl100k_base BPE encoding.
type Chunker struct {
	codec   tokenCodec
	size    int
	overlap int
}

// NewChunker creates a chunker producing chunks of at most size tokens,
// where chunk i+1 begins size−overlap tokens after chunk i.
func NewChunker(size, overlap int) (*Chunker, error) {
	codec, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return newChunkerWithCodec(codec, size, overlap)
}

func newChunkerWithCodec(codec tokenCodec, size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, &ConfigError{ChunkSize: size, Overlap: overlap, Reason: "chunk size must be positive"}
	}
	if overlap < 0 {
		return nil, &ConfigError{ChunkSize: size, Overlap: overlap, Reason: "overlap must not be negative"}
	}
	if overlap >= size {
		return nil, &ConfigError{ChunkSize: size, Overlap: overlap, Reason: "overlap must be less than chunk size"}
	}
	return &Chunker{codec: codec, size: size, overlap: overlap}, nil
}

// Chunks returns a lazy sequence of text chunks. Each chunk decodes at most
// size tokens; input shorter than the chunk size yields exactly one chunk
// containing the whole input. The sequence is single-use.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		tokens := c.codec.Encode(text, nil, nil)
		if len(tokens) == 0 {
			return
		}
		step := c.size - c.overlap
		for start := 0; start < len(tokens); start += step {
			end := min(start+c.size, len(tokens))
			if !yield(c.codec.Decode(tokens[start:end])) {
				return
			}
		}
	}
}
