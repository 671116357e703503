package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"famstore/config"
	"famstore/models"
	"famstore/repositories"
	"famstore/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UploadInput struct {
	Parent       ParentRef
	Filename     string
	DeclaredType string
	Size         int64
	Src          io.Reader
}

type ChunkInput struct {
	UploadID     string
	ChunkIndex   int
	TotalChunks  int
	Parent       ParentRef
	Filename     string
	DeclaredType string
	Src          io.Reader
}

const (
	ChunkStatusReceived  = "chunk_received"
	ChunkStatusCompleted = "completed"
)

// ChunkOutput always carries the acknowledged index; index 0 is a
// valid value and must survive serialization.
type ChunkOutput struct {
	Status         string `json:"status"`
	Index          int    `json:"index"`
	UploadedChunks int64  `json:"uploaded_chunks,omitempty"`
	TotalChunks    int    `json:"total_chunks,omitempty"`
	FileID         string `json:"file_id,omitempty"`
}

type UploadStatusOutput struct {
	UploadID       string `json:"upload_id"`
	UploadedChunks []int  `json:"uploaded_chunks"`
}

type UploadService interface {
	Upload(ctx context.Context, ownerID string, in UploadInput) (models.Item, error)
	UploadChunk(ctx context.Context, ownerID string, in ChunkInput) (ChunkOutput, error)
	UploadStatus(ctx context.Context, ownerID string, uploadID string) (UploadStatusOutput, error)
}

// uploadLocks serializes concurrent chunks of the same upload session.
// Different sessions never contend.
type uploadLocks struct {
	locks sync.Map
}

func (l *uploadLocks) lock(uploadID string) func() {
	v, _ := l.locks.LoadOrStore(uploadID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (l *uploadLocks) forget(uploadID string) {
	l.locks.Delete(uploadID)
}

type uploadService struct {
	txManager TxManager
	users     repositories.UserRepository
	items     repositories.ItemRepository
	progress  repositories.UploadProgressRepository
	blobs     storage.BlobStore
	thumbs    *ThumbnailService
	tempRoot  string
	resolver  parentResolver
	sessions  uploadLocks
}

func NewUploadService(
	txManager TxManager,
	users repositories.UserRepository,
	items repositories.ItemRepository,
	progress repositories.UploadProgressRepository,
	blobs storage.BlobStore,
	thumbs *ThumbnailService,
	basePath string,
) UploadService {
	return &uploadService{
		txManager: txManager,
		users:     users,
		items:     items,
		progress:  progress,
		blobs:     blobs,
		thumbs:    thumbs,
		tempRoot:  filepath.Join(basePath, "temp"),
		resolver:  parentResolver{users: users, items: items},
	}
}

// Upload stores a single-shot upload. The blob is durably written
// before the metadata row is committed; if the row commit fails the
// blob is deliberately left in place, because an orphan blob is disk
// waste while a row without a blob would be a dangling reference.
func (s *uploadService) Upload(ctx context.Context, ownerID string, in UploadInput) (models.Item, error) {
	if in.Size > config.AppConfig.Storage.MaxFileSize {
		return models.Item{}, newAppError(http.StatusBadRequest, "file exceeds the maximum allowed size", nil)
	}

	parentID, err := s.resolver.resolve(ctx, nil, ownerID, in.Parent)
	if err != nil {
		return models.Item{}, err
	}

	name := sanitizeFilename(in.Filename)
	if err := s.checkNameFree(ctx, ownerID, parentID, name); err != nil {
		return models.Item{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}
	itemID := id.String()

	size, err := s.blobs.Put(ownerID, itemID, in.Src)
	if err != nil {
		// Put removes its own partial file on failure.
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to store file content", err)
	}

	return s.createFileItem(ctx, ownerID, parentID, itemID, name, in.DeclaredType, size)
}

// UploadChunk implements the indexed-parts assembly mode: every chunk
// becomes <temp>/<upload_id>/<index>.part, and the request that lands
// the last distinct index performs the merge. Chunks of one session are
// serialized by a per-session mutex; a failed session is left on disk
// for retry or the cleanup worker.
func (s *uploadService) UploadChunk(ctx context.Context, ownerID string, in ChunkInput) (ChunkOutput, error) {
	if in.TotalChunks < 1 || in.ChunkIndex < 0 || in.ChunkIndex >= in.TotalChunks {
		return ChunkOutput{}, newAppError(http.StatusBadRequest, "invalid chunk index", nil)
	}

	unlock := s.sessions.lock(in.UploadID)
	defer unlock()

	uploaded, err := s.progress.IsChunkUploaded(ctx, in.UploadID, in.ChunkIndex)
	if err != nil {
		return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to check chunk state", err)
	}

	if !uploaded {
		sessionDir := filepath.Join(s.tempRoot, in.UploadID)
		if err := os.MkdirAll(sessionDir, 0o755); err != nil {
			return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to create upload session", err)
		}

		partPath := filepath.Join(sessionDir, fmt.Sprintf("%d.part", in.ChunkIndex))
		dst, err := os.Create(partPath)
		if err != nil {
			return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to store chunk", err)
		}
		if _, err := io.Copy(dst, in.Src); err != nil {
			dst.Close()
			_ = os.Remove(partPath)
			return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to write chunk", err)
		}
		_ = dst.Close()

		if err := s.progress.AddChunk(ctx, in.UploadID, in.ChunkIndex, config.AppConfig.Redis.UploadSessionExpire); err != nil {
			return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to record chunk", err)
		}
	}

	count, err := s.progress.UploadedCount(ctx, in.UploadID)
	if err != nil {
		return ChunkOutput{}, newAppError(http.StatusInternalServerError, "failed to read upload progress", err)
	}

	if count < int64(in.TotalChunks) {
		return ChunkOutput{
			Status:         ChunkStatusReceived,
			Index:          in.ChunkIndex,
			UploadedChunks: count,
			TotalChunks:    in.TotalChunks,
		}, nil
	}

	item, err := s.assemble(ctx, ownerID, in)
	if err != nil {
		return ChunkOutput{}, err
	}
	return ChunkOutput{Status: ChunkStatusCompleted, Index: in.ChunkIndex, FileID: item.ID}, nil
}

func (s *uploadService) assemble(ctx context.Context, ownerID string, in ChunkInput) (models.Item, error) {
	parentID, err := s.resolver.resolve(ctx, nil, ownerID, in.Parent)
	if err != nil {
		return models.Item{}, err
	}

	name := sanitizeFilename(in.Filename)
	if err := s.checkNameFree(ctx, ownerID, parentID, name); err != nil {
		return models.Item{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}
	itemID := id.String()

	sessionDir := filepath.Join(s.tempRoot, in.UploadID)
	mergedPath := filepath.Join(sessionDir, "merged")
	merged, err := os.Create(mergedPath)
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to merge chunks", err)
	}

	for i := 0; i < in.TotalChunks; i++ {
		part, err := os.Open(filepath.Join(sessionDir, fmt.Sprintf("%d.part", i)))
		if err != nil {
			merged.Close()
			_ = os.Remove(mergedPath)
			return models.Item{}, newAppError(http.StatusInternalServerError, fmt.Sprintf("chunk %d is missing", i), err)
		}
		_, err = io.Copy(merged, part)
		part.Close()
		if err != nil {
			merged.Close()
			_ = os.Remove(mergedPath)
			return models.Item{}, newAppError(http.StatusInternalServerError, "failed to merge chunks", err)
		}
	}
	if err := merged.Close(); err != nil {
		_ = os.Remove(mergedPath)
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to merge chunks", err)
	}

	size, err := s.blobs.PromoteFile(mergedPath, ownerID, itemID)
	if err != nil {
		_ = os.Remove(mergedPath)
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to finalize file content", err)
	}

	item, err := s.createFileItem(ctx, ownerID, parentID, itemID, name, in.DeclaredType, size)
	if err != nil {
		// Blob stays, session stays: both survive for inspection.
		return models.Item{}, err
	}

	_ = os.RemoveAll(sessionDir)
	_ = s.progress.Clear(ctx, in.UploadID)
	s.sessions.forget(in.UploadID)
	return item, nil
}

// createFileItem commits the metadata row for an already-written blob.
func (s *uploadService) createFileItem(ctx context.Context, ownerID, parentID, itemID, name, declaredType string, size int64) (models.Item, error) {
	mimeType := resolveMimeType(declaredType, name)
	item := models.Item{
		ID:        itemID,
		OwnerID:   ownerID,
		ParentID:  &parentID,
		Name:      name,
		Kind:      models.ItemKindFile,
		MimeType:  &mimeType,
		SizeBytes: size,
	}

	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.items.Create(ctx, tx, &item)
	})
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to save file record", err)
	}

	if s.thumbs != nil && IsImageFile(name) {
		s.thumbs.Generate(s.blobs.Path(ownerID, itemID), ownerID, itemID)
	}
	return item, nil
}

func (s *uploadService) checkNameFree(ctx context.Context, ownerID, parentID, name string) error {
	count, err := s.items.CountByParentAndName(ctx, nil, ownerID, parentID, name, "")
	if err != nil {
		return newAppError(http.StatusInternalServerError, "failed to check name collision", err)
	}
	if count > 0 {
		return newAppErrorWithData(http.StatusConflict, "an item with this name already exists here", map[string]string{"name": name}, nil)
	}
	return nil
}

func (s *uploadService) UploadStatus(ctx context.Context, _ string, uploadID string) (UploadStatusOutput, error) {
	chunks, err := s.progress.UploadedChunks(ctx, uploadID)
	if err != nil {
		return UploadStatusOutput{}, newAppError(http.StatusInternalServerError, "failed to read upload progress", err)
	}
	sort.Ints(chunks)
	return UploadStatusOutput{UploadID: uploadID, UploadedChunks: chunks}, nil
}
