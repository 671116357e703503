package storage

import (
	"io"
	"os"
	"path/filepath"
)

// BlobStore holds the raw bytes of file items, addressed purely by
// (owner id, item id). Names, mime types and hierarchy never influence
// the physical location, so metadata renames never move data.
type BlobStore interface {
	Put(ownerID, itemID string, src io.Reader) (int64, error)
	Open(ownerID, itemID string) (*os.File, error)
	Path(ownerID, itemID string) string
	Exists(ownerID, itemID string) bool
	// Delete is idempotent: removing a missing blob is success.
	Delete(ownerID, itemID string) error
	// PromoteFile moves an already-assembled temp file into the final
	// location via rename, avoiding a second copy of the bytes.
	PromoteFile(tmpPath, ownerID, itemID string) (int64, error)
}

type DiskStore struct {
	root string
}

func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{root: filepath.Join(basePath, "completed")}
}

func (s *DiskStore) Path(ownerID, itemID string) string {
	return filepath.Join(s.root, ownerID, itemID)
}

func (s *DiskStore) ownerDir(ownerID string) (string, error) {
	dir := filepath.Join(s.root, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *DiskStore) Put(ownerID, itemID string, src io.Reader) (int64, error) {
	if _, err := s.ownerDir(ownerID); err != nil {
		return 0, err
	}

	path := s.Path(ownerID, itemID)
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return written, nil
}

func (s *DiskStore) Open(ownerID, itemID string) (*os.File, error) {
	return os.Open(s.Path(ownerID, itemID))
}

func (s *DiskStore) Exists(ownerID, itemID string) bool {
	_, err := os.Stat(s.Path(ownerID, itemID))
	return err == nil
}

func (s *DiskStore) Delete(ownerID, itemID string) error {
	err := os.Remove(s.Path(ownerID, itemID))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *DiskStore) PromoteFile(tmpPath, ownerID, itemID string) (int64, error) {
	if _, err := s.ownerDir(ownerID); err != nil {
		return 0, err
	}

	final := s.Path(ownerID, itemID)
	if err := os.Rename(tmpPath, final); err != nil {
		return 0, err
	}
	info, err := os.Stat(final)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
