package services

import (
	"famstore/config"
	"famstore/repositories"
	"famstore/storage"
)

// Container wires the service layer from the repository layer and the
// on-disk stores. Handlers receive this as a single unit.
type Container struct {
	Auth    AuthService
	Items   ItemService
	Uploads UploadService
	Archive ArchiveService
	Cleanup *CleanupService
}

func NewContainer(repos repositories.Container, blobs storage.BlobStore) *Container {
	basePath := config.AppConfig.Storage.BasePath
	thumbs := NewThumbnailService(basePath)
	items := NewItemService(repos.TxManager, repos.Users, repos.Items, blobs, thumbs)
	return &Container{
		Auth:    NewAuthService(repos.TxManager, repos.Users, repos.Items),
		Items:   items,
		Uploads: NewUploadService(repos.TxManager, repos.Users, repos.Items, repos.UploadProgress, blobs, thumbs, basePath),
		Archive: NewArchiveService(repos.Users, items, blobs, basePath),
		Cleanup: NewCleanupService(repos.UploadProgress, basePath),
	}
}
