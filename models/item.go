package models

import "time"

const (
	ItemKindFile   = "file"
	ItemKindFolder = "folder"
)

// Item is one node of a user's file tree. Files and folders share the
// table; children reference their parent, never the other way around.
// A file's ID is also its blob name in the physical store.
type Item struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID   string    `gorm:"type:char(36);not null;index" json:"owner_id"`
	ParentID  *string   `gorm:"type:char(36);index" json:"parent_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Kind      string    `gorm:"type:varchar(6);not null;index" json:"kind"`
	MimeType  *string   `gorm:"type:varchar(100)" json:"mime_type"`
	SizeBytes int64     `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Item) IsFolder() bool {
	return i.Kind == ItemKindFolder
}
