package tree

import (
	"context"
	"sort"
	"strings"

	"github.com/otymus27/portal-hrg/pkg/portal/access"
	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// ListRootFolders returns the top-level folders the principal may see:
// all of them for administrators, otherwise the ones whose ACL names the
// principal.
func (e *Engine) ListRootFolders(ctx context.Context, principal *models.User) ([]*models.Folder, error) {
	if principal.IsAdmin() {
		return e.catalog.ListRootFolders(ctx)
	}
	return e.catalog.ListRootFoldersVisibleTo(ctx, principal.ID)
}

// FullTree materializes every root folder visible to the principal into
// a tree of folders and files, honoring the filter. Visibility is
// re-evaluated at every level, so a granted subfolder inside an
// inaccessible branch never leaks and an inaccessible subfolder inside a
// granted branch is pruned.
func (e *Engine) FullTree(ctx context.Context, principal *models.User, filter models.TreeFilter) ([]*models.FolderTree, error) {
	roots, err := e.ListRootFolders(ctx, principal)
	if err != nil {
		return nil, err
	}
	trees := make([]*models.FolderTree, 0, len(roots))
	for _, root := range roots {
		tree, err := e.materialize(ctx, principal, root, filter, 0)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	sortTrees(trees, filter)
	return trees, nil
}

// Subtree materializes the tree below one folder.
func (e *Engine) Subtree(ctx context.Context, principal *models.User, folderID string, filter models.TreeFilter) (*models.FolderTree, error) {
	folder, err := e.resolveFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := requireAccess(principal, folder); err != nil {
		return nil, err
	}
	return e.materialize(ctx, principal, folder, filter, 0)
}

// materialize builds the FolderTree for one folder. depth counts levels
// below the requested root; when the filter caps depth, children past the
// cap are omitted rather than failing.
func (e *Engine) materialize(ctx context.Context, principal *models.User, folder *models.Folder, filter models.TreeFilter, depth int) (*models.FolderTree, error) {
	node := &models.FolderTree{Folder: folder}

	files, err := e.catalog.ListFilesByFolder(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if filter.MatchesFile(f) {
			node.Files = append(node.Files, *f)
		}
	}

	if filter.MaxDepth > 0 && depth >= filter.MaxDepth {
		return node, nil
	}

	children, err := e.catalog.ListChildFolders(ctx, folder.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if !access.CanAccess(principal, child) {
			continue
		}
		sub, err := e.materialize(ctx, principal, child, filter, depth+1)
		if err != nil {
			return nil, err
		}
		node.Subfolders = append(node.Subfolders, sub)
	}
	sortTrees(node.Subfolders, filter)
	return node, nil
}

// sortTrees orders sibling subtrees by the filter's sort key. Size sorts
// by the aggregate byte size of each subtree.
func sortTrees(trees []*models.FolderTree, filter models.TreeFilter) {
	sort.SliceStable(trees, func(i, j int) bool {
		return treeLess(trees[i], trees[j], filter)
	})
}

func treeLess(a, b *models.FolderTree, filter models.TreeFilter) bool {
	var less bool
	switch filter.SortBy {
	case models.SortBySize:
		less = a.TotalSize() < b.TotalSize()
	case models.SortByDate:
		less = a.Folder.CreatedAt.Before(b.Folder.CreatedAt)
	default:
		less = strings.ToLower(a.Folder.Name) < strings.ToLower(b.Folder.Name)
	}
	if filter.Descending {
		return !less && !treeEqualKey(a, b, filter)
	}
	return less
}

func treeEqualKey(a, b *models.FolderTree, filter models.TreeFilter) bool {
	switch filter.SortBy {
	case models.SortBySize:
		return a.TotalSize() == b.TotalSize()
	case models.SortByDate:
		return a.Folder.CreatedAt.Equal(b.Folder.CreatedAt)
	default:
		return strings.EqualFold(a.Folder.Name, b.Folder.Name)
	}
}
