package repositories

import (
	"context"

	"famstore/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByEmail(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (models.User, error)
}

type ItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *models.Item) error
	GetByIDAndOwner(ctx context.Context, tx *gorm.DB, itemID string, ownerID string) (models.Item, error)
	ListByParent(ctx context.Context, tx *gorm.DB, ownerID string, parentID string) ([]models.Item, error)
	CountByParentAndName(ctx context.Context, tx *gorm.DB, ownerID string, parentID string, name string, excludeID string) (int64, error)
	UpdateByIDAndOwner(ctx context.Context, tx *gorm.DB, itemID string, ownerID string, updates map[string]interface{}) error
	DeleteByIDsAndOwner(ctx context.Context, tx *gorm.DB, ownerID string, itemIDs []string) error
}

type UploadProgressRepository interface {
	IsChunkUploaded(ctx context.Context, uploadID string, chunkIndex int) (bool, error)
	AddChunk(ctx context.Context, uploadID string, chunkIndex int, expireSeconds int) error
	UploadedCount(ctx context.Context, uploadID string) (int64, error)
	UploadedChunks(ctx context.Context, uploadID string) ([]int, error)
	Clear(ctx context.Context, uploadID string) error
}

type Container struct {
	TxManager      TxManager
	Users          UserRepository
	Items          ItemRepository
	UploadProgress UploadProgressRepository
}
