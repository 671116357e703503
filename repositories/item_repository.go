package repositories

import (
	"context"

	"famstore/models"

	"gorm.io/gorm"
)

type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) Create(_ context.Context, tx *gorm.DB, item *models.Item) error {
	return useTx(r.db, tx).Create(item).Error
}

func (r *GormItemRepository) GetByIDAndOwner(_ context.Context, tx *gorm.DB, itemID string, ownerID string) (models.Item, error) {
	var item models.Item
	err := useTx(r.db, tx).Where("id = ? AND owner_id = ?", itemID, ownerID).First(&item).Error
	return item, err
}

// ListByParent returns the direct children of a folder, folders before
// files, then by name ascending.
func (r *GormItemRepository) ListByParent(_ context.Context, tx *gorm.DB, ownerID string, parentID string) ([]models.Item, error) {
	var items []models.Item
	err := useTx(r.db, tx).
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Order("kind DESC, name ASC").
		Find(&items).Error
	return items, err
}

func (r *GormItemRepository) CountByParentAndName(_ context.Context, tx *gorm.DB, ownerID string, parentID string, name string, excludeID string) (int64, error) {
	db := useTx(r.db, tx).Model(&models.Item{}).
		Where("owner_id = ? AND parent_id = ? AND name = ?", ownerID, parentID, name)
	if excludeID != "" {
		db = db.Where("id <> ?", excludeID)
	}
	var count int64
	err := db.Count(&count).Error
	return count, err
}

func (r *GormItemRepository) UpdateByIDAndOwner(_ context.Context, tx *gorm.DB, itemID string, ownerID string, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Item{}).
		Where("id = ? AND owner_id = ?", itemID, ownerID).
		Updates(updates).Error
}

func (r *GormItemRepository) DeleteByIDsAndOwner(_ context.Context, tx *gorm.DB, ownerID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return useTx(r.db, tx).
		Where("owner_id = ? AND id IN ?", ownerID, itemIDs).
		Delete(&models.Item{}).Error
}
