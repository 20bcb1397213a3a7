package models

import "time"

// Folder is a node in the permissioned folder tree.
//
// Path is the full physical path on disk and is unique across the catalog.
// The invariant maintained by the tree engine is that Path always equals
// the parent's Path joined with the sanitized folder name; every rename or
// move rewrites the Path of all descendants to keep the prefix consistent.
type Folder struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Path      string    `gorm:"uniqueIndex;not null;size:4096" json:"path"`
	ParentID  *string   `gorm:"size:36;index" json:"parent_id,omitempty"`
	OwnerID   string    `gorm:"size:36" json:"owner_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// ACL lists the users allowed to see and mutate this folder.
	// Independent per node: it is never required to be a subset or
	// superset of the parent's ACL.
	ACL []User `gorm:"many2many:folder_permissions;" json:"acl,omitempty"`

	// Subfolders and Files are the child collections, populated on demand.
	Subfolders []Folder `gorm:"foreignKey:ParentID" json:"subfolders,omitempty"`
	Files      []File   `gorm:"foreignKey:FolderID" json:"files,omitempty"`
}

// TableName returns the table name for Folder.
func (Folder) TableName() string {
	return "folders"
}

// IsRoot reports whether the folder is a top-level folder.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// HasPermission checks if the user appears in the folder's ACL.
// Administrators should not need this check; see access.CanAccess.
func (f *Folder) HasPermission(userID string) bool {
	for _, u := range f.ACL {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// ACLUserIDs returns the ids of every user in the ACL.
func (f *Folder) ACLUserIDs() []string {
	ids := make([]string, len(f.ACL))
	for i, u := range f.ACL {
		ids[i] = u.ID
	}
	return ids
}
