package services

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"famstore/logger"
	"famstore/repositories"
	"famstore/storage"

	"github.com/google/uuid"
)

// Archive is a finished zip on disk. Callers must invoke Cleanup once
// the bytes have been sent.
type Archive struct {
	Path    string
	Name    string
	Cleanup func()
}

type ArchiveService interface {
	BuildFolderArchive(ctx context.Context, ownerID string, folder ParentRef) (Archive, error)
}

type archiveService struct {
	users    repositories.UserRepository
	items    ItemService
	blobs    storage.BlobStore
	stageDir string
}

func NewArchiveService(users repositories.UserRepository, items ItemService, blobs storage.BlobStore, basePath string) ArchiveService {
	return &archiveService{
		users:    users,
		items:    items,
		blobs:    blobs,
		stageDir: filepath.Join(basePath, "temp", "archives"),
	}
}

// BuildFolderArchive zips a folder's subtree into a staging file.
// Folder entries are written explicitly so empty folders survive the
// round trip; a file whose blob has gone missing is skipped rather
// than failing the whole archive.
func (s *archiveService) BuildFolderArchive(ctx context.Context, ownerID string, folder ParentRef) (Archive, error) {
	folderID := folder.ID
	folderName := "Home"
	if folder.Root {
		user, err := s.users.GetByID(ctx, nil, ownerID)
		if err != nil {
			return Archive{}, newAppError(http.StatusInternalServerError, "failed to load user", err)
		}
		folderID = user.RootFolderID
	} else {
		item, err := s.items.GetFolder(ctx, ownerID, folderID)
		if err != nil {
			return Archive{}, err
		}
		folderName = item.Name
	}

	entries, err := s.items.MaterializeSubtree(ctx, ownerID, folderID)
	if err != nil {
		return Archive{}, err
	}

	if err := os.MkdirAll(s.stageDir, 0o755); err != nil {
		return Archive{}, newAppError(http.StatusInternalServerError, "failed to prepare archive staging", err)
	}

	stamp, err := uuid.NewV7()
	if err != nil {
		return Archive{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}
	zipPath := filepath.Join(s.stageDir, folderName+"_"+stamp.String()+".zip")

	if err := s.writeZip(zipPath, ownerID, entries); err != nil {
		_ = os.Remove(zipPath)
		return Archive{}, newAppError(http.StatusInternalServerError, "failed to build archive", err)
	}

	return Archive{
		Path:    zipPath,
		Name:    folderName + ".zip",
		Cleanup: func() { _ = os.Remove(zipPath) },
	}, nil
}

func (s *archiveService) writeZip(zipPath, ownerID string, entries []SubtreeEntry) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, e := range entries {
		if e.Item.IsFolder() {
			if _, err := zw.Create(e.RelPath + "/"); err != nil {
				return err
			}
			continue
		}

		blob, err := s.blobs.Open(ownerID, e.Item.ID)
		if err != nil {
			logger.Debugf("archive: skipping %s (%s): %v", e.RelPath, e.Item.ID, err)
			continue
		}
		w, err := zw.Create(e.RelPath)
		if err != nil {
			blob.Close()
			return err
		}
		_, err = io.Copy(w, blob)
		blob.Close()
		if err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}
