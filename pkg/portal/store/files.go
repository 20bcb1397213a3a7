package store

import (
	"context"
	"strings"
	"time"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

func (s *GORMStore) GetFile(ctx context.Context, id string) (*models.File, error) {
	return getByField[models.File](s.db, ctx, "id", id, models.ErrFileNotFound)
}

func (s *GORMStore) GetFileByPath(ctx context.Context, path string) (*models.File, error) {
	return getByField[models.File](s.db, ctx, "path", path, models.ErrFileNotFound)
}

func (s *GORMStore) ListFilesByFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	files := make([]*models.File, 0)
	err := s.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("name").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// fileSortColumn whitelists sortable columns; anything unknown sorts by name.
func fileSortColumn(field string) string {
	switch strings.ToLower(field) {
	case "size":
		return "size"
	case "date", "uploaded_at":
		return "uploaded_at"
	default:
		return "name"
	}
}

func (s *GORMStore) ListFilesPage(ctx context.Context, folderID string, page, pageSize int, sortField string, descending bool, extension string) ([]*models.File, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	q := s.db.WithContext(ctx).Model(&models.File{}).Where("folder_id = ?", folderID)
	if extension != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(extension))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := fileSortColumn(sortField)
	if descending {
		order += " DESC"
	}

	files := make([]*models.File, 0)
	err := q.Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func (s *GORMStore) CreateFile(ctx context.Context, file *models.File) (string, error) {
	file.UploadedAt = time.Now()
	file.UpdatedAt = file.UploadedAt
	return createWithID(s.db, ctx, file, func(f *models.File, id string) { f.ID = id }, file.ID, models.ErrNameConflict)
}

func (s *GORMStore) UpdateFile(ctx context.Context, file *models.File) error {
	var existing models.File
	if err := s.db.WithContext(ctx).Where("id = ?", file.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrFileNotFound)
	}

	file.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Name", "Path", "ContentType", "Size", "FolderID", "UpdatedAt").
		Updates(file).Error
}

func (s *GORMStore) DeleteFile(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.File{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}
