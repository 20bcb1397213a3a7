package models

import "time"

// File is a stored document inside a folder.
//
// Path is the full physical path on disk, unique across the catalog, and
// always resolves under the parent folder's Path.
type File struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Path        string    `gorm:"uniqueIndex;not null;size:4096" json:"path"`
	ContentType string    `gorm:"size:255" json:"content_type"`
	Size        int64     `json:"size"`
	FolderID    string    `gorm:"size:36;not null;index" json:"folder_id"`
	OwnerID     string    `gorm:"size:36" json:"owner_id"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for File.
func (File) TableName() string {
	return "files"
}
