package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/reposcout/internal/blob"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStore_EmptyRoot(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	payload := []byte{0x00, 0x01, 0xFF, 0x7F}
	if err := s.Put(ctx, "reposcout", "index.bin", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "reposcout", "index.bin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Get(context.Background(), "reposcout", "missing.bin")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPut_Overwrite(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "b", "k", []byte("old")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "b", "k", []byte("new")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "b", "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("expected overwritten value, got %q", got)
	}
}

func TestPut_NestedKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "corpora", "aws-samples/metadata.json", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "corpora", "aws-samples/metadata.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("unexpected payload: %q", got)
	}
}

func TestPut_LeavesNoTempFiles(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "b", "k", []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(s.root, "b"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "k" {
		t.Errorf("expected only the object file, got %v", entries)
	}
}

func TestExists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "b", "k")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("expected false before Put")
	}

	if err := s.Put(ctx, "b", "k", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	exists, err = s.Exists(ctx, "b", "k")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected true after Put")
	}
}

func TestPing(t *testing.T) {
	s := newStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broken := &Store{root: filepath.Join(t.TempDir(), "gone")}
	if err := broken.Ping(context.Background()); err == nil {
		t.Error("expected error for missing root")
	}
}
