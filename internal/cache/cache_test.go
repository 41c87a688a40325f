package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func TestKeyIncludesEveryPart(t *testing.T) {
	base := Key("prompt", "system", "model-a")
	if base != Key("prompt", "system", "model-a") {
		t.Fatal("Key is not deterministic")
	}

	variants := []string{
		Key("prompt", "system", "model-b"),
		Key("prompt", "other-system", "model-a"),
		Key("other-prompt", "system", "model-a"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestKeyLengthPrefixPreventsBoundaryCollisions(t *testing.T) {
	// "ab"+"c" and "a"+"bc" concatenate identically; the keys must differ.
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatal("keys collide across part boundaries")
	}
	if Key("abc") == Key("abc", "") {
		t.Fatal("trailing empty part should change the key")
	}
}

// storeUnderTest exercises the Store contract shared by both backends.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	key := Key("some payload", "model")

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get on empty store = (ok=%v, err=%v), want miss", ok, err)
	}

	value := []byte("cached result")
	if err := store.Put(ctx, key, value); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() missed after Put")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get() = %q, want %q", got, value)
	}

	// Duplicate Put must not error and the first value wins.
	if err := store.Put(ctx, key, []byte("other")); err != nil {
		t.Fatalf("duplicate Put() error: %v", err)
	}
	got, _, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("after duplicate Put, Get() = %q, want first value %q", got, value)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	storeUnderTest(t, store)
}

func TestFSStore(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	storeUnderTest(t, store)
}

func TestFSStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := Key("persisted")

	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}
	if err := store.Put(ctx, key, []byte("v")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	reopened, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() reopen error: %v", err)
	}
	if _, ok, err := reopened.Get(ctx, key); err != nil || !ok {
		t.Fatalf("entry lost across reopen (ok=%v, err=%v)", ok, err)
	}
}
