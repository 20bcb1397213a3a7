package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

func (s *GORMStore) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return getByField[models.Folder](s.db, ctx, "id", id, models.ErrFolderNotFound, "ACL", "Subfolders", "Files")
}

func (s *GORMStore) GetFolderByPath(ctx context.Context, path string) (*models.Folder, error) {
	return getByField[models.Folder](s.db, ctx, "path", path, models.ErrFolderNotFound, "ACL")
}

func (s *GORMStore) ListRootFolders(ctx context.Context) ([]*models.Folder, error) {
	folders := make([]*models.Folder, 0)
	err := s.db.WithContext(ctx).
		Preload("ACL").
		Where("parent_id IS NULL").
		Order("name").
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *GORMStore) ListRootFoldersVisibleTo(ctx context.Context, userID string) ([]*models.Folder, error) {
	folders := make([]*models.Folder, 0)
	err := s.db.WithContext(ctx).
		Preload("ACL").
		Joins("JOIN folder_permissions fp ON fp.folder_id = folders.id").
		Where("folders.parent_id IS NULL AND fp.user_id = ?", userID).
		Order("folders.name").
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *GORMStore) ListChildFolders(ctx context.Context, parentID string) ([]*models.Folder, error) {
	folders := make([]*models.Folder, 0)
	err := s.db.WithContext(ctx).
		Preload("ACL").
		Where("parent_id = ?", parentID).
		Order("name").
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (s *GORMStore) CreateFolder(ctx context.Context, folder *models.Folder) (string, error) {
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt
	// Omit("ACL.*") creates the permission join rows without trying to
	// upsert the referenced user rows.
	id := folder.ID
	if id == "" {
		id = newID()
		folder.ID = id
	}
	if err := s.db.WithContext(ctx).Omit("ACL.*").Create(folder).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", models.ErrNameConflict
		}
		return "", err
	}
	return id, nil
}

func (s *GORMStore) UpdateFolder(ctx context.Context, folder *models.Folder) error {
	var existing models.Folder
	if err := s.db.WithContext(ctx).Where("id = ?", folder.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrFolderNotFound)
	}

	folder.UpdatedAt = time.Now()
	// Select handles nil ParentID properly (moving a folder to root).
	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Name", "Path", "ParentID", "UpdatedAt").
		Updates(map[string]any{
			"name":       folder.Name,
			"path":       folder.Path,
			"parent_id":  folder.ParentID,
			"updated_at": folder.UpdatedAt,
		}).Error
}

func (s *GORMStore) ReplaceFolderACL(ctx context.Context, folderID string, users []models.User) error {
	var folder models.Folder
	if err := s.db.WithContext(ctx).Where("id = ?", folderID).First(&folder).Error; err != nil {
		return convertNotFoundError(err, models.ErrFolderNotFound)
	}

	refs := make([]*models.User, len(users))
	for i := range users {
		refs[i] = &models.User{ID: users[i].ID}
	}
	if err := s.db.WithContext(ctx).Model(&folder).Association("ACL").Replace(refs); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&folder).
		Update("updated_at", time.Now()).Error
}

func (s *GORMStore) RewritePathPrefix(ctx context.Context, folderID, oldPath, newPath string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return rewriteSubtreePaths(tx, folderID, oldPath, newPath)
	})
}

// rewriteSubtreePaths replaces the oldPrefix of the folder's stored path,
// of all its files, and of every descendant, walking parent references
// depth-first inside the surrounding transaction.
func rewriteSubtreePaths(tx *gorm.DB, folderID, oldPrefix, newPrefix string) error {
	var folder models.Folder
	if err := tx.Where("id = ?", folderID).First(&folder).Error; err != nil {
		return convertNotFoundError(err, models.ErrFolderNotFound)
	}

	rewritten := newPrefix + strings.TrimPrefix(folder.Path, oldPrefix)
	if err := tx.Model(&folder).Updates(map[string]any{
		"path":       rewritten,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return err
	}

	var files []models.File
	if err := tx.Where("folder_id = ?", folderID).Find(&files).Error; err != nil {
		return err
	}
	for i := range files {
		newFilePath := newPrefix + strings.TrimPrefix(files[i].Path, oldPrefix)
		if err := tx.Model(&files[i]).Update("path", newFilePath).Error; err != nil {
			return err
		}
	}

	var childIDs []string
	if err := tx.Model(&models.Folder{}).Where("parent_id = ?", folderID).Pluck("id", &childIDs).Error; err != nil {
		return err
	}
	for _, childID := range childIDs {
		if err := rewriteSubtreePaths(tx, childID, oldPrefix, newPrefix); err != nil {
			return err
		}
	}
	return nil
}

func (s *GORMStore) DeleteFolder(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var folder models.Folder
		if err := tx.Where("id = ?", id).First(&folder).Error; err != nil {
			return convertNotFoundError(err, models.ErrFolderNotFound)
		}

		// Drop the permission join rows (GORM handles the join table).
		if err := tx.Model(&folder).Association("ACL").Clear(); err != nil {
			return err
		}

		return tx.Delete(&folder).Error
	})
}
