package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nkarimi/go-file-relay/internal/config"
)

// roundTrip exercises the full Store contract against any backend.
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Put / Open
	n, err := s.Put(ctx, "keyAAAAAAAAAAAAA", strings.NewReader("payload-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len("payload-bytes")) {
		t.Fatalf("Put byte count = %d", n)
	}
	rc, err := s.Open(ctx, "keyAAAAAAAAAAAAA")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(got) != "payload-bytes" {
		t.Fatalf("readback = %q, err=%v", got, err)
	}

	// Overwrite under the same key
	if _, err := s.Put(ctx, "keyAAAAAAAAAAAAA", strings.NewReader("v2")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	rc, err = s.Open(ctx, "keyAAAAAAAAAAAAA")
	if err != nil {
		t.Fatalf("Open after overwrite: %v", err)
	}
	got, _ = io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != "v2" {
		t.Fatalf("overwrite readback = %q", got)
	}

	// Open missing key
	if _, err := s.Open(ctx, "missingBBBBBBBBB"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// List with prefix
	if _, err := s.Put(ctx, "keyBBBBBBBBBBBBB", strings.NewReader("x")); err != nil {
		t.Fatalf("Put second: %v", err)
	}
	if _, err := s.Put(ctx, "otherCCCCCCCCCCC", strings.NewReader("y")); err != nil {
		t.Fatalf("Put third: %v", err)
	}
	keys, err := s.List(ctx, "key")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"keyAAAAAAAAAAAAA", "keyBBBBBBBBBBBBB"}) {
		t.Fatalf("List mismatch: %#v", keys)
	}

	// Delete, then again (no-op)
	if err := s.Delete(ctx, "keyAAAAAAAAAAAAA"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, "keyAAAAAAAAAAAAA"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "keyAAAAAAAAAAAAA"); err != nil {
		t.Fatalf("Delete of absent key should be a no-op, got %v", err)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	roundTrip(t, NewMemory())
}

func TestFSStore_RoundTrip(t *testing.T) {
	fs, err := NewFS(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	roundTrip(t, fs)
}

func TestFSStore_KeysNeverEscapeRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	fs, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()

	// A traversal-looking key must be flattened into the root.
	if _, err := fs.Put(ctx, "../escape", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape")); err != nil {
		t.Fatalf("payload should land under root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape")); !os.IsNotExist(err) {
		t.Fatalf("payload escaped the root directory")
	}
}

func TestFSStore_ListSkipsTempFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	fs, err := NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	ctx := context.Background()

	if _, err := fs.Put(ctx, "realAAAAAAAAAAAA", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Simulate a leftover temp file from a crashed Put.
	if err := os.WriteFile(filepath.Join(root, ".put-123"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	keys, err := fs.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"realAAAAAAAAAAAA"}) {
		t.Fatalf("List should skip temp files: %#v", keys)
	}
}

func TestNew_BackendSelection(t *testing.T) {
	s, err := New(config.BlobConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("New(memory): %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", s)
	}

	s, err = New(config.BlobConfig{Backend: "fs", Dir: filepath.Join(t.TempDir(), "b")})
	if err != nil {
		t.Fatalf("New(fs): %v", err)
	}
	if _, ok := s.(*FS); !ok {
		t.Fatalf("expected *FS, got %T", s)
	}

	if _, err := New(config.BlobConfig{Backend: "tape"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
