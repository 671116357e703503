package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"time"

	"famstore/logger"
	"famstore/models"
	"famstore/repositories"
	"famstore/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubtreeEntry is one descendant of a materialized folder, annotated
// with its slash-joined path relative to that folder.
type SubtreeEntry struct {
	Item    models.Item
	RelPath string
}

type ContentInfo struct {
	Item        models.Item
	AbsPath     string
	ContentType string
}

type ItemService interface {
	CreateFolder(ctx context.Context, ownerID string, parent ParentRef, name string) (models.Item, error)
	List(ctx context.Context, ownerID string, parent ParentRef) ([]models.Item, error)
	Rename(ctx context.Context, ownerID string, itemID string, newName string) (models.Item, error)
	Delete(ctx context.Context, ownerID string, itemID string) error
	GetFolder(ctx context.Context, ownerID string, folderID string) (models.Item, error)
	MaterializeSubtree(ctx context.Context, ownerID string, folderID string) ([]SubtreeEntry, error)
	GetContentInfo(ctx context.Context, ownerID string, itemID string) (ContentInfo, error)
	ThumbnailPath(ownerID string, itemID string) (string, bool)
}

type itemService struct {
	txManager TxManager
	users     repositories.UserRepository
	items     repositories.ItemRepository
	blobs     storage.BlobStore
	thumbs    *ThumbnailService
	resolver  parentResolver
}

func NewItemService(
	txManager TxManager,
	users repositories.UserRepository,
	items repositories.ItemRepository,
	blobs storage.BlobStore,
	thumbs *ThumbnailService,
) ItemService {
	return &itemService{
		txManager: txManager,
		users:     users,
		items:     items,
		blobs:     blobs,
		thumbs:    thumbs,
		resolver:  parentResolver{users: users, items: items},
	}
}

func (s *itemService) CreateFolder(ctx context.Context, ownerID string, parent ParentRef, name string) (models.Item, error) {
	if !validItemName(name) {
		return models.Item{}, newAppError(http.StatusBadRequest, "name contains invalid characters", nil)
	}

	parentID, err := s.resolver.resolve(ctx, nil, ownerID, parent)
	if err != nil {
		return models.Item{}, err
	}

	count, err := s.items.CountByParentAndName(ctx, nil, ownerID, parentID, name, "")
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to check name collision", err)
	}
	if count > 0 {
		return models.Item{}, newAppErrorWithData(http.StatusConflict, "an item with this name already exists here", map[string]string{"name": name}, nil)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to generate id", err)
	}

	folder := models.Item{
		ID:       id.String(),
		OwnerID:  ownerID,
		ParentID: &parentID,
		Name:     name,
		Kind:     models.ItemKindFolder,
	}
	if err := s.items.Create(ctx, nil, &folder); err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to create folder", err)
	}
	return folder, nil
}

func (s *itemService) List(ctx context.Context, ownerID string, parent ParentRef) ([]models.Item, error) {
	parentID, err := s.resolver.resolve(ctx, nil, ownerID, parent)
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.HTTPCode == http.StatusBadRequest {
			return nil, newAppError(http.StatusNotFound, "folder not found", nil)
		}
		return nil, err
	}

	list, err := s.items.ListByParent(ctx, nil, ownerID, parentID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to list items", err)
	}
	return list, nil
}

func (s *itemService) Rename(ctx context.Context, ownerID string, itemID string, newName string) (models.Item, error) {
	if !validItemName(newName) {
		return models.Item{}, newAppError(http.StatusBadRequest, "name contains invalid characters", nil)
	}

	item, err := s.items.GetByIDAndOwner(ctx, nil, itemID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Item{}, newAppError(http.StatusNotFound, "item not found", nil)
		}
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to query item", err)
	}
	if item.ParentID == nil {
		return models.Item{}, newAppError(http.StatusBadRequest, "the root folder cannot be renamed", nil)
	}

	count, err := s.items.CountByParentAndName(ctx, nil, ownerID, *item.ParentID, newName, item.ID)
	if err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to check name collision", err)
	}
	if count > 0 {
		return models.Item{}, newAppErrorWithData(http.StatusConflict, "an item with this name already exists here", map[string]string{"name": newName}, nil)
	}

	now := time.Now()
	updates := map[string]interface{}{"name": newName, "updated_at": now}
	if err := s.items.UpdateByIDAndOwner(ctx, nil, item.ID, ownerID, updates); err != nil {
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to rename item", err)
	}

	item.Name = newName
	item.UpdatedAt = now
	return item, nil
}

// Delete removes an item's metadata; for folders the whole subtree goes
// in one transaction. Physical blobs are removed best-effort afterwards:
// a failed disk delete never blocks the metadata delete, and descendant
// blobs of a deleted folder are left behind (disk waste, not a
// correctness hazard).
func (s *itemService) Delete(ctx context.Context, ownerID string, itemID string) error {
	item, err := s.items.GetByIDAndOwner(ctx, nil, itemID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, "item not found", nil)
		}
		return newAppError(http.StatusInternalServerError, "failed to query item", err)
	}
	if item.ParentID == nil {
		return newAppError(http.StatusBadRequest, "the root folder cannot be deleted", nil)
	}

	// The subtree walk and the delete share one transaction, so a row
	// inserted under the subtree concurrently cannot be orphaned.
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		ids := []string{item.ID}
		if item.Kind == models.ItemKindFolder {
			entries, werr := s.walkSubtree(ctx, tx, ownerID, item.ID)
			if werr != nil {
				return werr
			}
			for _, entry := range entries {
				ids = append(ids, entry.Item.ID)
			}
		}
		return s.items.DeleteByIDsAndOwner(ctx, tx, ownerID, ids)
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return newAppError(http.StatusInternalServerError, "failed to delete item", err)
	}

	if item.Kind == models.ItemKindFile {
		if err := s.blobs.Delete(ownerID, item.ID); err != nil {
			logger.Debugf("blob delete failed for %s/%s: %v", ownerID, item.ID, err)
		}
		if s.thumbs != nil {
			s.thumbs.Remove(ownerID, item.ID)
		}
	}
	return nil
}

// GetFolder loads an owned item and checks it is a folder.
func (s *itemService) GetFolder(ctx context.Context, ownerID string, folderID string) (models.Item, error) {
	folder, err := s.items.GetByIDAndOwner(ctx, nil, folderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Item{}, newAppError(http.StatusNotFound, "folder not found", nil)
		}
		return models.Item{}, newAppError(http.StatusInternalServerError, "failed to query folder", err)
	}
	if folder.Kind != models.ItemKindFolder {
		return models.Item{}, newAppError(http.StatusNotFound, "folder not found", nil)
	}
	return folder, nil
}

// MaterializeSubtree walks a folder's descendants in preorder and
// returns each with its path relative to that folder. The walk reads
// the by-parent index iteratively and keeps a visited set, so it
// terminates even if the tree has been corrupted into a cycle.
func (s *itemService) MaterializeSubtree(ctx context.Context, ownerID string, folderID string) ([]SubtreeEntry, error) {
	folder, err := s.GetFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	return s.walkSubtree(ctx, nil, ownerID, folder.ID)
}

func (s *itemService) walkSubtree(ctx context.Context, tx *gorm.DB, ownerID string, rootID string) ([]SubtreeEntry, error) {
	var entries []SubtreeEntry
	visited := map[string]bool{rootID: true}

	var descend func(parentID, relPath string) error
	descend = func(parentID, relPath string) error {
		children, err := s.items.ListByParent(ctx, tx, ownerID, parentID)
		if err != nil {
			return newAppError(http.StatusInternalServerError, "failed to walk folder tree", err)
		}
		for _, child := range children {
			// The visited set keeps the walk finite even if the
			// acyclic invariant has been violated upstream.
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true

			childPath := path.Join(relPath, child.Name)
			entries = append(entries, SubtreeEntry{Item: child, RelPath: childPath})
			if child.Kind == models.ItemKindFolder {
				if err := descend(child.ID, childPath); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := descend(rootID, ""); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *itemService) GetContentInfo(ctx context.Context, ownerID string, itemID string) (ContentInfo, error) {
	item, err := s.items.GetByIDAndOwner(ctx, nil, itemID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ContentInfo{}, newAppError(http.StatusNotFound, "file not found", nil)
		}
		return ContentInfo{}, newAppError(http.StatusInternalServerError, "failed to query item", err)
	}
	if item.Kind != models.ItemKindFile {
		return ContentInfo{}, newAppError(http.StatusBadRequest, "item is not a file", nil)
	}
	if !s.blobs.Exists(ownerID, item.ID) {
		return ContentInfo{}, newAppError(http.StatusNotFound, "file content is missing from storage", nil)
	}

	contentType := genericMimeType
	if item.MimeType != nil && *item.MimeType != "" {
		contentType = *item.MimeType
	}
	return ContentInfo{Item: item, AbsPath: s.blobs.Path(ownerID, item.ID), ContentType: contentType}, nil
}

// ThumbnailPath reports where the item's thumbnail lives, if one was
// generated. Ownership must already be checked through the row.
func (s *itemService) ThumbnailPath(ownerID string, itemID string) (string, bool) {
	if s.thumbs == nil {
		return "", false
	}
	p := s.thumbs.Path(ownerID, itemID)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}
