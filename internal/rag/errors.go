package rag

import (
	"errors"
	"fmt"
)

// ErrExternalCall marks failures of the external model calls (embedding,
// rerank, generation). Handlers map it to a "could not generate an answer"
// response instead of presenting partial output as complete.
var ErrExternalCall = errors.New("external call failed")

// errNoEmbedding reports an embedding response with no vector for the query.
var errNoEmbedding = errors.New("no embedding returned for query")

// externalErr wraps err as an ErrExternalCall with a stage label.
func externalErr(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalCall, stage, err)
}
