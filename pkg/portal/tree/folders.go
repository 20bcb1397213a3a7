package tree

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/pkg/portal/access"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// CreateRequest carries the inputs for folder creation.
type CreateRequest struct {
	Name     string
	ParentID *string
	// ACLUserIDs grants access to these users. When empty the acting
	// principal becomes the sole ACL entry.
	ACLUserIDs []string
}

// Create makes a new folder under the given parent, or at the storage
// root when ParentID is nil (admin only). The physical directory is
// created before the catalog row; if the row insert then fails the
// directory is rolled back.
func (e *Engine) Create(ctx context.Context, principal *models.User, req CreateRequest) (folder *models.Folder, err error) {
	defer func() { observe("folder_create", err) }()

	parentDir := e.root
	var parent *models.Folder
	if req.ParentID != nil {
		parent, err = e.resolveFolder(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		parentDir = parent.Path
	}
	if !access.CanCreateAt(principal, parent) {
		return nil, fmt.Errorf("%w: user %q cannot create under %s", models.ErrPermissionDenied, principalName(principal), parentDir)
	}

	path, err := targetPath(parentDir, req.Name)
	if err != nil {
		return nil, err
	}

	var unlock func()
	if parent != nil {
		rootID, rerr := e.rootAncestorID(ctx, parent)
		if rerr != nil {
			return nil, rerr
		}
		unlock = e.locks.lock(rootID)
	} else {
		unlock = e.locks.lock(e.root)
	}
	defer unlock()

	taken, err := e.pathTaken(ctx, path)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, path)
	}

	acl, err := e.resolveACL(ctx, principal, req.ACLUserIDs)
	if err != nil {
		return nil, err
	}

	if err := e.gw.CreateDirectory(ctx, path); err != nil {
		return nil, err
	}

	folder = &models.Folder{
		Name:    displayName(req.Name),
		Path:    path,
		OwnerID: principal.ID,
		ACL:     acl,
	}
	if parent != nil {
		folder.ParentID = &parent.ID
	}
	id, err := e.catalog.CreateFolder(ctx, folder)
	if err != nil {
		if derr := e.gw.DeleteTree(ctx, path); derr != nil {
			logger.Warn("orphan directory left after failed folder insert", "path", path, "error", derr)
		}
		return nil, err
	}
	return e.catalog.GetFolder(ctx, id)
}

// resolveACL maps the requested user ids to user rows. An id that does
// not resolve is an invalid reference. An empty request defaults to the
// acting principal alone.
func (e *Engine) resolveACL(ctx context.Context, principal *models.User, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{*principal}, nil
	}
	users, err := e.catalog.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(dedupe(ids)) {
		return nil, fmt.Errorf("%w: one or more ACL user ids do not exist", models.ErrInvalidReference)
	}
	acl := make([]models.User, 0, len(users))
	for _, u := range users {
		acl = append(acl, *u)
	}
	return acl, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Rename changes a folder's display name and physical directory name in
// place. Every descendant path in the catalog is rewritten to the new
// prefix.
func (e *Engine) Rename(ctx context.Context, principal *models.User, folderID, newName string) (result *models.Folder, err error) {
	defer func() { observe("folder_rename", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	newPath, err := targetPath(filepath.Dir(folder.Path), newName)
	if err != nil {
		return nil, err
	}

	rootID, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(rootID)
	defer unlock()

	if newPath == folder.Path {
		return folder, nil
	}
	taken, err := e.pathTaken(ctx, newPath)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
	}

	if err := e.gw.MoveDirectory(ctx, folder.Path, newPath); err != nil {
		return nil, err
	}
	if err := e.catalog.RewritePathPrefix(ctx, folder.ID, folder.Path, newPath); err != nil {
		return nil, err
	}
	folder.Name = displayName(newName)
	folder.Path = newPath
	folder.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return e.catalog.GetFolder(ctx, folder.ID)
}

// Move re-parents a folder. A nil newParentID moves it to the storage
// root. Moving a folder into itself or into one of its own descendants
// is rejected before any side effect.
func (e *Engine) Move(ctx context.Context, principal *models.User, folderID string, newParentID *string) (result *models.Folder, err error) {
	defer func() { observe("folder_move", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}

	destDir := e.root
	var newParent *models.Folder
	if newParentID != nil {
		newParent, err = e.resolveFolder(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		if err := requireAccess(principal, newParent); err != nil {
			return nil, err
		}
		cyclic, cerr := e.isDescendantOf(ctx, newParent, folder.ID)
		if cerr != nil {
			return nil, cerr
		}
		if cyclic {
			return nil, fmt.Errorf("%w: cannot move folder %q into its own subtree", models.ErrInvalidArgument, folder.Name)
		}
		destDir = newParent.Path
	}

	newPath, err := targetPath(destDir, folder.Name)
	if err != nil {
		return nil, err
	}

	srcRoot, err := e.rootAncestorID(ctx, folder)
	if err != nil {
		return nil, err
	}
	lockKeys := []string{srcRoot}
	if newParent != nil {
		dstRoot, rerr := e.rootAncestorID(ctx, newParent)
		if rerr != nil {
			return nil, rerr
		}
		lockKeys = append(lockKeys, dstRoot)
	} else {
		lockKeys = append(lockKeys, e.root)
	}
	unlock := e.locks.lock(lockKeys...)
	defer unlock()

	if newPath == folder.Path {
		return folder, nil
	}
	taken, err := e.pathTaken(ctx, newPath)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: path %s", models.ErrNameConflict, newPath)
	}

	if err := e.gw.MoveDirectory(ctx, folder.Path, newPath); err != nil {
		return nil, err
	}
	if err := e.catalog.RewritePathPrefix(ctx, folder.ID, folder.Path, newPath); err != nil {
		return nil, err
	}
	folder.ParentID = nil
	if newParent != nil {
		folder.ParentID = &newParent.ID
	}
	folder.Path = newPath
	folder.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return e.catalog.GetFolder(ctx, folder.ID)
}

// Copy duplicates a whole subtree under the destination folder, or at
// the storage root when destID is nil (admin only). When the name is
// taken at the destination a numeric suffix is appended: "Reports"
// becomes "Reports (2)", then "Reports (3)". Every copied row is owned
// by the acting principal; ACLs are mirrored from the originals.
func (e *Engine) Copy(ctx context.Context, principal *models.User, folderID string, destID *string) (result *models.Folder, err error) {
	defer func() { observe("folder_copy", err) }()

	src, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, src); err != nil {
		return nil, err
	}

	destDir := e.root
	var dest *models.Folder
	if destID != nil {
		dest, err = e.resolveFolder(ctx, *destID)
		if err != nil {
			return nil, err
		}
		if err := requireAccess(principal, dest); err != nil {
			return nil, err
		}
		cyclic, cerr := e.isDescendantOf(ctx, dest, src.ID)
		if cerr != nil {
			return nil, cerr
		}
		if cyclic {
			return nil, fmt.Errorf("%w: cannot copy folder %q into its own subtree", models.ErrInvalidArgument, src.Name)
		}
		destDir = dest.Path
	} else if !principal.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators copy to the root", models.ErrPermissionDenied)
	}

	srcRoot, err := e.rootAncestorID(ctx, src)
	if err != nil {
		return nil, err
	}
	lockKeys := []string{srcRoot}
	if dest != nil {
		dstRoot, rerr := e.rootAncestorID(ctx, dest)
		if rerr != nil {
			return nil, rerr
		}
		lockKeys = append(lockKeys, dstRoot)
	} else {
		lockKeys = append(lockKeys, e.root)
	}
	unlock := e.locks.lock(lockKeys...)
	defer unlock()

	name, newPath, err := e.uniqueCopyName(ctx, destDir, src.Name)
	if err != nil {
		return nil, err
	}

	if err := e.gw.CopyTree(ctx, src.Path, newPath); err != nil {
		return nil, err
	}

	var parentID *string
	if dest != nil {
		parentID = &dest.ID
	}
	id, err := e.mirrorSubtree(ctx, principal, src, name, newPath, parentID)
	if err != nil {
		return nil, err
	}
	return e.catalog.GetFolder(ctx, id)
}

// mirrorSubtree creates catalog rows for a subtree that has already been
// copied on disk, depth-first from the given source folder. The new rows
// carry the source ACLs and the acting principal as owner.
func (e *Engine) mirrorSubtree(ctx context.Context, principal *models.User, src *models.Folder, name, path string, parentID *string) (string, error) {
	row := &models.Folder{
		Name:     displayName(name),
		Path:     path,
		ParentID: parentID,
		OwnerID:  principal.ID,
		ACL:      src.ACL,
	}
	id, err := e.catalog.CreateFolder(ctx, row)
	if err != nil {
		return "", err
	}

	files, err := e.catalog.ListFilesByFolder(ctx, src.ID)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		dup := &models.File{
			Name:        f.Name,
			Path:        filepath.Join(path, filepath.Base(f.Path)),
			ContentType: f.ContentType,
			Size:        f.Size,
			FolderID:    id,
			OwnerID:     principal.ID,
		}
		if _, err := e.catalog.CreateFile(ctx, dup); err != nil {
			return "", err
		}
	}

	children, err := e.catalog.ListChildFolders(ctx, src.ID)
	if err != nil {
		return "", err
	}
	for _, child := range children {
		childPath := filepath.Join(path, filepath.Base(child.Path))
		if _, err := e.mirrorSubtree(ctx, principal, child, child.Name, childPath, &id); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Delete removes a folder and everything beneath it, leaf-first: files
// and subfolders go before their parent, on disk before the catalog.
func (e *Engine) Delete(ctx context.Context, principal *models.User, folderID string) (err error) {
	defer func() { observe("folder_delete", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
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

	return e.deleteSubtree(ctx, folder)
}

func (e *Engine) deleteSubtree(ctx context.Context, folder *models.Folder) error {
	children, err := e.catalog.ListChildFolders(ctx, folder.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := e.deleteSubtree(ctx, child); err != nil {
			return err
		}
	}

	files, err := e.catalog.ListFilesByFolder(ctx, folder.ID)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := e.gw.DeleteFile(ctx, f.Path); err != nil {
			return err
		}
		if err := e.catalog.DeleteFile(ctx, f.ID); err != nil {
			return err
		}
	}

	if err := e.gw.DeleteTree(ctx, folder.Path); err != nil {
		return err
	}
	return e.catalog.DeleteFolder(ctx, folder.ID)
}

// DeleteBatch deletes several folders in sequence. With cascade off, a
// folder that still holds files or subfolders fails the whole batch with
// ErrFolderNotEmpty; folders deleted before the failure stay deleted.
func (e *Engine) DeleteBatch(ctx context.Context, principal *models.User, folderIDs []string, cascade bool) (err error) {
	defer func() { observe("folder_delete_batch", err) }()

	for _, id := range folderIDs {
		folder, ferr := e.resolveFolder(ctx, id)
		if ferr != nil {
			return ferr
		}
		if ferr := requireAccess(principal, folder); ferr != nil {
			return ferr
		}

		if cascade {
			rootID, rerr := e.rootAncestorID(ctx, folder)
			if rerr != nil {
				return rerr
			}
			unlock := e.locks.lock(rootID)
			ferr = e.deleteSubtree(ctx, folder)
			unlock()
			if ferr != nil {
				return ferr
			}
			continue
		}

		children, cerr := e.catalog.ListChildFolders(ctx, folder.ID)
		if cerr != nil {
			return cerr
		}
		files, ferr2 := e.catalog.ListFilesByFolder(ctx, folder.ID)
		if ferr2 != nil {
			return ferr2
		}
		if len(children) > 0 || len(files) > 0 {
			return fmt.Errorf("%w: folder %q still has contents", models.ErrFolderNotEmpty, folder.Name)
		}
		rootID, rerr := e.rootAncestorID(ctx, folder)
		if rerr != nil {
			return rerr
		}
		unlock := e.locks.lock(rootID)
		ferr = e.deleteSubtree(ctx, folder)
		unlock()
		if ferr != nil {
			return ferr
		}
	}
	return nil
}

// ReplaceContents wipes everything inside the destination folder and
// re-creates the source folder's current contents there, both on disk
// and in the catalog. The destination folder itself survives with its
// identity and ACL intact.
func (e *Engine) ReplaceContents(ctx context.Context, principal *models.User, srcID, dstID string) (result *models.Folder, err error) {
	defer func() { observe("folder_replace_contents", err) }()

	src, err := e.resolveFolder(ctx, srcID)
	if err != nil {
		return nil, err
	}
	dst, err := e.resolveFolder(ctx, dstID)
	if err != nil {
		return nil, err
	}
	if src.ID == dst.ID {
		return nil, fmt.Errorf("%w: source and destination are the same folder", models.ErrInvalidArgument)
	}
	if err := requireAccess(principal, src); err != nil {
		return nil, err
	}
	if err := requireAccess(principal, dst); err != nil {
		return nil, err
	}
	overlap, err := e.isDescendantOf(ctx, dst, src.ID)
	if err != nil {
		return nil, err
	}
	if !overlap {
		overlap, err = e.isDescendantOf(ctx, src, dst.ID)
		if err != nil {
			return nil, err
		}
	}
	if overlap {
		return nil, fmt.Errorf("%w: source and destination overlap", models.ErrInvalidArgument)
	}

	srcRoot, err := e.rootAncestorID(ctx, src)
	if err != nil {
		return nil, err
	}
	dstRoot, err := e.rootAncestorID(ctx, dst)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(srcRoot, dstRoot)
	defer unlock()

	// Clear the destination's current contents, leaf-first.
	children, err := e.catalog.ListChildFolders(ctx, dst.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if err := e.deleteSubtree(ctx, child); err != nil {
			return nil, err
		}
	}
	files, err := e.catalog.ListFilesByFolder(ctx, dst.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := e.gw.DeleteFile(ctx, f.Path); err != nil {
			return nil, err
		}
		if err := e.catalog.DeleteFile(ctx, f.ID); err != nil {
			return nil, err
		}
	}

	// Re-create the source's contents under the destination.
	srcFiles, err := e.catalog.ListFilesByFolder(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range srcFiles {
		toPath := filepath.Join(dst.Path, filepath.Base(f.Path))
		if err := e.gw.CopyFile(ctx, f.Path, toPath); err != nil {
			return nil, err
		}
		row := &models.File{
			Name:        f.Name,
			Path:        toPath,
			ContentType: f.ContentType,
			Size:        f.Size,
			FolderID:    dst.ID,
			OwnerID:     principal.ID,
		}
		if _, err := e.catalog.CreateFile(ctx, row); err != nil {
			return nil, err
		}
	}
	srcChildren, err := e.catalog.ListChildFolders(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range srcChildren {
		childPath := filepath.Join(dst.Path, filepath.Base(child.Path))
		if err := e.gw.CopyTree(ctx, child.Path, childPath); err != nil {
			return nil, err
		}
		if _, err := e.mirrorSubtree(ctx, principal, child, child.Name, childPath, &dst.ID); err != nil {
			return nil, err
		}
	}

	dst.UpdatedAt = time.Now()
	if err := e.catalog.UpdateFolder(ctx, dst); err != nil {
		return nil, err
	}
	return e.catalog.GetFolder(ctx, dst.ID)
}

// UpdatePermissions adjusts a folder's ACL by the given additions and
// removals. Removals are applied after additions, so a user named in
// both ends up without access.
func (e *Engine) UpdatePermissions(ctx context.Context, principal *models.User, folderID string, addIDs, removeIDs []string) (result *models.Folder, err error) {
	defer func() { observe("folder_update_permissions", err) }()

	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	if len(addIDs) == 0 && len(removeIDs) == 0 {
		return folder, nil
	}

	added, err := e.catalog.GetUsersByIDs(ctx, addIDs)
	if err != nil {
		return nil, err
	}
	if len(added) != len(dedupe(addIDs)) {
		return nil, fmt.Errorf("%w: one or more granted user ids do not exist", models.ErrInvalidReference)
	}
	removed, err := e.catalog.GetUsersByIDs(ctx, removeIDs)
	if err != nil {
		return nil, err
	}
	if len(removed) != len(dedupe(removeIDs)) {
		return nil, fmt.Errorf("%w: one or more revoked user ids do not exist", models.ErrInvalidReference)
	}

	acl := make(map[string]models.User, len(folder.ACL)+len(added))
	for _, u := range folder.ACL {
		acl[u.ID] = u
	}
	for _, u := range added {
		acl[u.ID] = *u
	}
	for _, id := range removeIDs {
		delete(acl, id)
	}

	users := make([]models.User, 0, len(acl))
	for _, u := range acl {
		users = append(users, u)
	}
	if err := e.catalog.ReplaceFolderACL(ctx, folder.ID, users); err != nil {
		return nil, err
	}
	return e.catalog.GetFolder(ctx, folder.ID)
}

// ListUsersForFolder returns the folder's ACL members.
func (e *Engine) ListUsersForFolder(ctx context.Context, principal *models.User, folderID string) ([]models.User, error) {
	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	return folder.ACL, nil
}
