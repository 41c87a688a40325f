package cache

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks github.com/nam-htran/DomainAIAgent/internal/cache Store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Store is a content-addressed key-value store memoizing the results of
// expensive external calls. Entries are written once and never evicted or
// invalidated: a changed model behind the same identifier will appear stale,
// which is the accepted tradeoff for cost control.
type Store interface {
	// Get returns the cached value for key. The second return reports
	// whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key. Concurrent writers racing on the same key
	// may both compute the value; the write must be atomic per key so a
	// reader never observes a partial entry.
	Put(ctx context.Context, key string, value []byte) error
}

// Key derives a cache key from every input that can change the call's
// result: the primary payload plus model identifier, system prompt, and any
// other parameter. Parts are length-prefixed before hashing so that no
// concatenation of different part lists can produce the same digest.
func Key(parts ...string) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(part)))
		h.Write(lenBuf[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
