package models

import "time"

type User struct {
	ID       string `gorm:"type:char(36);primaryKey" json:"id"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username string `gorm:"type:varchar(50);not null" json:"username"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`

	// Points at the user's root Item. Assigned once at registration,
	// before the root row itself is inserted, so it carries no FK.
	RootFolderID string `gorm:"type:char(36);not null" json:"root_folder_id"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
