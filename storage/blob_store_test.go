package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream broke")
}

func TestDiskStorePutOpenRoundTrip(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	n, err := store.Put("owner-1", "item-1", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if n != int64(len("payload")) {
		t.Fatalf("put wrote %d bytes, want %d", n, len("payload"))
	}
	if !store.Exists("owner-1", "item-1") {
		t.Fatalf("blob must exist after put")
	}

	f, err := store.Open("owner-1", "item-1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("read %q, want payload", data)
	}
}

func TestDiskStorePutFailureLeavesNoPartial(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	_, err := store.Put("owner-1", "item-1", failingReader{})
	if err == nil {
		t.Fatalf("expected error from broken reader")
	}
	if store.Exists("owner-1", "item-1") {
		t.Fatalf("partial blob must be removed on write failure")
	}
}

func TestDiskStoreDeleteIdempotent(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	if _, err := store.Put("owner-1", "item-1", strings.NewReader("x")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Delete("owner-1", "item-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete("owner-1", "item-1"); err != nil {
		t.Fatalf("deleting a missing blob must succeed, got %v", err)
	}
	if err := store.Delete("owner-1", "never-existed"); err != nil {
		t.Fatalf("deleting an unknown blob must succeed, got %v", err)
	}
}

func TestDiskStorePromoteFile(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)

	tmp := filepath.Join(dir, "assembled")
	if err := os.WriteFile(tmp, []byte("assembled-bytes"), 0o644); err != nil {
		t.Fatalf("write temp failed: %v", err)
	}

	n, err := store.PromoteFile(tmp, "owner-1", "item-1")
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if n != int64(len("assembled-bytes")) {
		t.Fatalf("promote reported %d bytes, want %d", n, len("assembled-bytes"))
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatalf("temp file must be gone after promote")
	}
	if !store.Exists("owner-1", "item-1") {
		t.Fatalf("blob must exist after promote")
	}
}

func TestDiskStorePathIsStable(t *testing.T) {
	store := NewDiskStore("/srv/famstore")
	want := filepath.Join("/srv/famstore", "completed", "owner-1", "item-1")
	if got := store.Path("owner-1", "item-1"); got != want {
		t.Fatalf("path %q, want %q", got, want)
	}
}
