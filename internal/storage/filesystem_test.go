package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "concept-art/p-1.png", []byte("img"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "concept-art/p-1.png" {
		t.Fatalf("key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(dir, "concept-art", "p-1.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "img" {
		t.Fatalf("data = %q", data)
	}
}

func TestFileStoreReadBack(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Write(ctx, "models/p-1.glb", []byte("glb")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := store.Read(ctx, "models/p-1.glb")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "glb" {
		t.Fatalf("data = %q", data)
	}
	if _, err := store.Read(ctx, "models/missing.glb"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := store.Read(ctx, "../escape"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "   ", "../outside.txt", "a/../../outside.txt"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestFileStoreCleansKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "/nested//dir/./asset.glb", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "nested/dir/asset.glb" {
		t.Fatalf("key = %q", key)
	}
}
