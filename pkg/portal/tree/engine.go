// Package tree implements the tree-mutation engine: every create, rename,
// move, copy, replace and delete of folders and files, keeping the
// relational catalog and the physical filesystem consistent under the
// hierarchical permission rules.
//
// Operation ordering is deliberate and uniform: permission and validation
// failures happen before any side effect; physical filesystem mutation
// happens before the catalog commit for creates and copies, and
// catalog-state-aware leaf-first for deletes. The filesystem and the
// catalog are not covered by one atomic commit; a crash mid-operation can
// leave them divergent, which operators reconcile from logs.
package tree

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/otymus27/portal-hrg/internal/logger"
	"github.com/otymus27/portal-hrg/internal/sanitize"
	"github.com/otymus27/portal-hrg/pkg/metrics"
	"github.com/otymus27/portal-hrg/pkg/portal/access"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
	"github.com/otymus27/portal-hrg/pkg/portal/storage"
	"github.com/otymus27/portal-hrg/pkg/portal/store"
)

// Engine orchestrates tree mutations across the catalog and the
// filesystem gateway. It is stateless between calls except for the
// per-subtree mutex table that serializes mutating operations.
type Engine struct {
	catalog store.Catalog
	gw      storage.Gateway
	root    string
	locks   *subtreeLocks
}

// New creates a tree engine rooted at rootDir.
func New(catalog store.Catalog, gw storage.Gateway, rootDir string) *Engine {
	return &Engine{
		catalog: catalog,
		gw:      gw,
		root:    rootDir,
		locks:   newSubtreeLocks(),
	}
}

// Root returns the configured storage root directory.
func (e *Engine) Root() string {
	return e.root
}

// resolveFolder loads a folder or reports ErrFolderNotFound with the id.
func (e *Engine) resolveFolder(ctx context.Context, id string) (*models.Folder, error) {
	folder, err := e.catalog.GetFolder(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrFolderNotFound) {
			return nil, fmt.Errorf("%w: id %s", models.ErrFolderNotFound, id)
		}
		return nil, err
	}
	return folder, nil
}

// requireAccess fails with ErrPermissionDenied unless the user may act on
// the folder.
func requireAccess(user *models.User, folder *models.Folder) error {
	if !access.CanAccess(user, folder) {
		return fmt.Errorf("%w: user %q on folder %q", models.ErrPermissionDenied, principalName(user), folder.Name)
	}
	return nil
}

func principalName(user *models.User) string {
	if user == nil {
		return "anonymous"
	}
	return user.Username
}

// rootAncestorID walks parent references up to the top-level folder and
// returns its id. Used as the serialization key for mutating operations.
func (e *Engine) rootAncestorID(ctx context.Context, folder *models.Folder) (string, error) {
	current := folder
	for current.ParentID != nil {
		parent, err := e.catalog.GetFolder(ctx, *current.ParentID)
		if err != nil {
			return "", err
		}
		current = parent
	}
	return current.ID, nil
}

// isDescendantOf reports whether candidate lies in the subtree rooted at
// ancestorID (or is that folder itself), walking parent references.
func (e *Engine) isDescendantOf(ctx context.Context, candidate *models.Folder, ancestorID string) (bool, error) {
	current := candidate
	for {
		if current.ID == ancestorID {
			return true, nil
		}
		if current.ParentID == nil {
			return false, nil
		}
		parent, err := e.catalog.GetFolder(ctx, *current.ParentID)
		if err != nil {
			return false, err
		}
		current = parent
	}
}

// pathTaken reports whether a physical path is already occupied, either by
// a catalog row or by an entry on disk.
func (e *Engine) pathTaken(ctx context.Context, path string) (bool, error) {
	if e.gw.Exists(path) {
		return true, nil
	}
	if _, err := e.catalog.GetFolderByPath(ctx, path); err == nil {
		return true, nil
	} else if !errors.Is(err, models.ErrFolderNotFound) {
		return false, err
	}
	return false, nil
}

// targetPath joins a parent directory with the sanitized form of name.
func targetPath(parentDir, name string) (string, error) {
	safe, err := sanitize.Name(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(parentDir, safe), nil
}

// observe records the outcome of an engine operation on the metrics
// registry and logs failures.
func observe(op string, err error) {
	metrics.ObserveOperation(op, err)
	if err != nil {
		logger.Warn("tree operation failed", "op", op, "error", err)
	}
}

// uniqueCopyName finds a display name that does not collide at destDir,
// appending " (2)", " (3)", ... to the base name until the computed
// physical path is free. Returns the chosen display name and path.
func (e *Engine) uniqueCopyName(ctx context.Context, destDir, baseName string) (string, string, error) {
	name := baseName
	for i := 2; ; i++ {
		path, err := targetPath(destDir, name)
		if err != nil {
			return "", "", err
		}
		taken, err := e.pathTaken(ctx, path)
		if err != nil {
			return "", "", err
		}
		if !taken {
			return name, path, nil
		}
		name = fmt.Sprintf("%s (%d)", baseName, i)
	}
}

// displayName trims surrounding whitespace from a user-supplied name.
func displayName(name string) string {
	return strings.TrimSpace(name)
}
