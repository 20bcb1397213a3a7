// Package store implements the relational catalog behind the portal:
// folder and file metadata, ownership, ACLs, and the user base.
package store

import (
	"context"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// FolderStore defines folder catalog operations.
type FolderStore interface {
	// GetFolder loads a folder with its ACL, subfolders and files.
	GetFolder(ctx context.Context, id string) (*models.Folder, error)

	// GetFolderByPath loads the folder occupying a physical path, with ACL.
	GetFolderByPath(ctx context.Context, path string) (*models.Folder, error)

	// ListRootFolders returns every parentless folder.
	ListRootFolders(ctx context.Context) ([]*models.Folder, error)

	// ListRootFoldersVisibleTo returns the parentless folders whose ACL
	// contains the given user.
	ListRootFoldersVisibleTo(ctx context.Context, userID string) ([]*models.Folder, error)

	// ListChildFolders returns the direct subfolders of a folder, with ACLs.
	ListChildFolders(ctx context.Context, parentID string) ([]*models.Folder, error)

	// CreateFolder persists a new folder together with its ACL.
	CreateFolder(ctx context.Context, folder *models.Folder) (string, error)

	// UpdateFolder persists name, path, parent and timestamp changes.
	UpdateFolder(ctx context.Context, folder *models.Folder) error

	// ReplaceFolderACL replaces the folder's ACL wholesale.
	ReplaceFolderACL(ctx context.Context, folderID string, users []models.User) error

	// RewritePathPrefix rewrites the stored physical path of the folder
	// and every descendant folder and file, replacing oldPath with
	// newPath as prefix, in a single transaction.
	RewritePathPrefix(ctx context.Context, folderID, oldPath, newPath string) error

	// DeleteFolder removes the folder row and its ACL join rows.
	// Descendants must already be gone.
	DeleteFolder(ctx context.Context, id string) error
}

// FileStore defines file catalog operations.
type FileStore interface {
	GetFile(ctx context.Context, id string) (*models.File, error)

	// GetFileByPath loads the file occupying a physical path.
	GetFileByPath(ctx context.Context, path string) (*models.File, error)

	ListFilesByFolder(ctx context.Context, folderID string) ([]*models.File, error)

	// ListFilesPage returns one page of a folder's files plus the total
	// count matching the extension filter. Pages are 1-based.
	ListFilesPage(ctx context.Context, folderID string, page, pageSize int, sortField string, descending bool, extension string) ([]*models.File, int64, error)

	CreateFile(ctx context.Context, file *models.File) (string, error)
	UpdateFile(ctx context.Context, file *models.File) error
	DeleteFile(ctx context.Context, id string) error
}

// UserStore defines user catalog operations.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs resolves a set of user ids. Missing ids are simply
	// absent from the result; callers decide whether that is an error.
	GetUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (string, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, username string) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	UpdateLastLogin(ctx context.Context, username string) error
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// Catalog is the full catalog contract consumed by the tree engine and
// the API layer.
type Catalog interface {
	FolderStore
	FileStore
	UserStore

	// Ping verifies the underlying database connection is alive.
	Ping(ctx context.Context) error
}
