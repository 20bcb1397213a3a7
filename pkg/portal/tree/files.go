package tree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// UploadRequest carries one incoming file payload.
type UploadRequest struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FilePage is one page of a folder's file listing.
type FilePage struct {
	Items    []*models.File `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// Upload writes a file's bytes into the folder's directory and records
// it in the catalog. Empty payloads are rejected. Uploading over an
// existing file of the same name replaces its bytes and updates the row.
func (e *Engine) Upload(ctx context.Context, principal *models.User, folderID string, req UploadRequest) (file *models.File, err error) {
	defer func() { observe("file_upload", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	return e.uploadLocked(ctx, principal, folder, req)
}

func (e *Engine) uploadLocked(ctx context.Context, principal *models.User, folder *models.Folder, req UploadRequest) (*models.File, error) {
	if req.Body == nil || req.Size == 0 {
		return nil, fmt.Errorf("%w: empty file payload %q", models.ErrInvalidArgument, req.Name)
	}
	path, err := targetPath(folder.Path, req.Name)
	if err != nil {
		return nil, err
	}

	// The folder's directory may have never been materialized, or been
	// removed out-of-band. Recreating it is idempotent.
	if err := e.gw.CreateDirectoryAll(ctx, folder.Path); err != nil {
		return nil, err
	}

	written, err := e.gw.WriteStream(ctx, path, req.Body)
	if err != nil {
		return nil, err
	}
	if written == 0 {
		if derr := e.gw.DeleteFile(ctx, path); derr != nil {
			logger.Warn("could not remove empty upload", "path", path, "error", derr)
		}
		return nil, fmt.Errorf("%w: empty file payload %q", models.ErrInvalidArgument, req.Name)
	}

	existing, err := e.catalog.GetFileByPath(ctx, path)
	switch {
	case err == nil:
		existing.Name = displayName(req.Name)
		existing.ContentType = req.ContentType
		existing.Size = written
		existing.UpdatedAt = time.Now()
		if err := e.catalog.UpdateFile(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, models.ErrFileNotFound):
		row := &models.File{
			Name:        displayName(req.Name),
			Path:        path,
			ContentType: req.ContentType,
			Size:        written,
			FolderID:    folder.ID,
			OwnerID:     principal.ID,
		}
		if _, err := e.catalog.CreateFile(ctx, row); err != nil {
			return nil, err
		}
		return row, nil
	default:
		return nil, err
	}
}

// UploadMultiple stores a batch of files into one folder. Empty payloads
// are skipped rather than failing the batch; the stored files are
// returned in request order.
func (e *Engine) UploadMultiple(ctx context.Context, principal *models.User, folderID string, reqs []UploadRequest) (files []*models.File, err error) {
	defer func() { observe("file_upload_multi", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	files = make([]*models.File, 0, len(reqs))
	for _, req := range reqs {
		if req.Body == nil || req.Size == 0 {
			logger.Debug("skipping empty upload", "name", req.Name, "folder", folder.Name)
			continue
		}
		file, uerr := e.uploadLocked(ctx, principal, folder, req)
		if uerr != nil {
			return nil, uerr
		}
		files = append(files, file)
	}
	return files, nil
}

// GetFile loads a file's metadata, enforcing access through its folder.
func (e *Engine) GetFile(ctx context.Context, principal *models.User, fileID string) (*models.File, error) {
	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	return file, nil
}

// OpenFile returns a reader over a file's bytes for download. The caller
// closes the reader.
func (e *Engine) OpenFile(ctx context.Context, principal *models.User, fileID string) (*models.File, io.ReadCloser, error) {
	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, nil, err
	}
	rc, err := e.gw.ReadStream(ctx, file.Path)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

// RenameFile changes a file's display name and on-disk name within its
// folder.
func (e *Engine) RenameFile(ctx context.Context, principal *models.User, fileID, newName string) (result *models.File, err error) {
	defer func() { observe("file_rename", err) }()

	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	newPath, err := targetPath(filepath.Dir(file.Path), newName)
	if err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	if newPath == file.Path {
		return file, nil
	}
	if taken, terr := e.filePathTaken(ctx, newPath); terr != nil {
		return nil, terr
	} else if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
	}

	if err := e.gw.MoveFile(ctx, file.Path, newPath); err != nil {
		return nil, err
	}
	file.Name = displayName(newName)
	file.Path = newPath
	file.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// MoveFile relocates a file to another folder, keeping its name. The
// principal needs access to both the current and the destination folder.
func (e *Engine) MoveFile(ctx context.Context, principal *models.User, fileID, destFolderID string) (result *models.File, err error) {
	defer func() { observe("file_move", err) }()

	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	dest, err := e.resolveFolder(ctx, destFolderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, dest); err != nil {
		return nil, err
	}

	newPath := filepath.Join(dest.Path, filepath.Base(file.Path))

	srcRoot, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	dstRoot, err := e.rootAncestorID(ctx, dest)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(srcRoot, dstRoot)
	defer unlock()

	if newPath == file.Path {
		return file, nil
	}
	if taken, terr := e.filePathTaken(ctx, newPath); terr != nil {
		return nil, terr
	} else if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
	}

	if err := e.gw.MoveFile(ctx, file.Path, newPath); err != nil {
		return nil, err
	}
	file.FolderID = dest.ID
	file.Path = newPath
	file.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// CopyFile duplicates a file into another folder. The copy is owned by
// the acting principal.
func (e *Engine) CopyFile(ctx context.Context, principal *models.User, fileID, destFolderID string) (result *models.File, err error) {
	defer func() { observe("file_copy", err) }()

	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	dest, err := e.resolveFolder(ctx, destFolderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, dest); err != nil {
		return nil, err
	}

	newPath := filepath.Join(dest.Path, filepath.Base(file.Path))

	dstRoot, err := e.rootAncestorID(ctx, dest)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(dstRoot)
	defer unlock()

	if taken, terr := e.filePathTaken(ctx, newPath); terr != nil {
		return nil, terr
	} else if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
	}

	if err := e.gw.CopyFile(ctx, file.Path, newPath); err != nil {
		return nil, err
	}
	row := &models.File{
		Name:        file.Name,
		Path:        newPath,
		ContentType: file.ContentType,
		Size:        file.Size,
		FolderID:    dest.ID,
		OwnerID:     principal.ID,
	}
	if _, err := e.catalog.CreateFile(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// ReplaceFile overwrites a file's bytes with a new payload, optionally
// under a new name. When the name changes the old physical file is
// removed; a failure there is logged, not fatal, since the new content
// is already in place.
func (e *Engine) ReplaceFile(ctx context.Context, principal *models.User, fileID string, req UploadRequest) (result *models.File, err error) {
	defer func() { observe("file_replace", err) }()

	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	if req.Body == nil || req.Size == 0 {
		return nil, fmt.Errorf("%w: empty file payload %q", models.ErrInvalidArgument, req.Name)
	}

	name := req.Name
	if displayName(name) == "" {
		name = file.Name
	}
	newPath, err := targetPath(filepath.Dir(file.Path), name)
	if err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	if newPath != file.Path {
		if taken, terr := e.filePathTaken(ctx, newPath); terr != nil {
			return nil, terr
		} else if taken {
			return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
		}
	}

	written, err := e.gw.WriteStream(ctx, newPath, req.Body)
	if err != nil {
		return nil, err
	}
	if newPath != file.Path {
		if derr := e.gw.DeleteFile(ctx, file.Path); derr != nil {
			logger.Warn("stale file left after replace", "path", file.Path, "error", derr)
		}
	}

	file.Name = displayName(name)
	file.Path = newPath
	file.ContentType = req.ContentType
	file.Size = written
	file.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes a file from disk and the catalog.
func (e *Engine) DeleteFile(ctx context.Context, principal *models.User, fileID string) (err error) {
	defer func() { observe("file_delete", err) }()

	file, folder, err := e.resolveFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := requireAccess(principal, folder); err != nil {
		return err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	if err := e.gw.DeleteFile(ctx, file.Path); err != nil {
		return err
	}
	return e.catalog.DeleteFile(ctx, file.ID)
}

// DeleteFilesInFolder removes files from a folder: the named ones when
// fileIDs is non-empty, otherwise every file the folder holds. Ids that
// belong to other folders are invalid references. The deleted files are
// returned.
func (e *Engine) DeleteFilesInFolder(ctx context.Context, principal *models.User, folderID string, fileIDs []string) (deleted []*models.File, err error) {
	defer func() { observe("file_delete_batch", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	var targets []*models.File
	if len(fileIDs) == 0 {
		targets, err = e.catalog.ListFilesByFolder(ctx, folder.ID)
		if err != nil {
			return nil, err
		}
	} else {
		for _, id := range dedupe(fileIDs) {
			file, ferr := e.catalog.GetFile(ctx, id)
			if ferr != nil {
				return nil, ferr
			}
			if file.FolderID != folder.ID {
				return nil, fmt.Errorf("%w: file %q is not in folder %q", models.ErrInvalidReference, file.Name, folder.Name)
			}
			targets = append(targets, file)
		}
	}

	deleted = make([]*models.File, 0, len(targets))
	for _, file := range targets {
		if err := e.gw.DeleteFile(ctx, file.Path); err != nil {
			return deleted, err
		}
		if err := e.catalog.DeleteFile(ctx, file.ID); err != nil {
			return deleted, err
		}
		deleted = append(deleted, file)
	}
	return deleted, nil
}

// ListFilesInFolder returns one page of the folder's files. Pages are
// 1-based; sortField is one of name, size or date.
func (e *Engine) ListFilesInFolder(ctx context.Context, principal *models.User, folderID string, page, pageSize int, sortField string, descending bool, extension string) (*FilePage, error) {
	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	items, total, err := e.catalog.ListFilesPage(ctx, folder.ID, page, pageSize, sortField, descending, extension)
	if err != nil {
		return nil, err
	}
	return &FilePage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// resolveFile loads a file and its containing folder.
func (e *Engine) resolveFile(ctx context.Context, fileID string) (*models.File, *models.Folder, error) {
	file, err := e.catalog.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: id %s", models.ErrFileNotFound, fileID)
		}
		return nil, nil, err
	}
	folder, err := e.catalog.GetFolder(ctx, file.FolderID)
	if err != nil {
		return nil, nil, err
	}
	return file, folder, nil
}

// filePathTaken reports whether a file path is occupied on disk or in
// the catalog.
func (e *Engine) filePathTaken(ctx context.Context, path string) (bool, error) {
	if e.gw.Exists(path) {
		return true, nil
	}
	if _, err := e.catalog.GetFileByPath(ctx, path); err == nil {
		return true, nil
	} else if !errors.Is(err, models.ErrFileNotFound) {
		return false, err
	}
	return false, nil
}
