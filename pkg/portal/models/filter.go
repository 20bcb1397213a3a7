package models

import "strings"

// SortKey selects the attribute used to order siblings in tree listings.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
	SortBySize SortKey = "size"
)

// ParseSortKey maps a user-supplied sort field to a SortKey,
// defaulting to SortByName.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortByDate:
		return SortByDate
	case SortBySize:
		return SortBySize
	default:
		return SortByName
	}
}

// TreeFilter narrows and orders tree listings.
//
// The zero value means "everything, sorted by name ascending, unlimited
// depth". File predicates (extension, size bounds) apply to files only;
// MaxDepth and the sort key apply to subfolder recursion at every level.
type TreeFilter struct {
	// Extension keeps only files whose name ends with this suffix
	// (case-insensitive). Empty keeps all files.
	Extension string

	// MinSize and MaxSize bound the file size in bytes; nil means unbounded.
	MinSize *int64
	MaxSize *int64

	// MaxDepth limits recursion; descendants beyond it are omitted.
	// Zero or negative means unlimited.
	MaxDepth int

	// SortBy orders sibling subfolders at every level.
	SortBy SortKey

	// Descending reverses the sort order.
	Descending bool
}

// MatchesFile reports whether a file passes the filter's file predicates.
func (f *TreeFilter) MatchesFile(file *File) bool {
	if f.Extension != "" && !strings.HasSuffix(strings.ToLower(file.Name), strings.ToLower(f.Extension)) {
		return false
	}
	if f.MinSize != nil && file.Size < *f.MinSize {
		return false
	}
	if f.MaxSize != nil && file.Size > *f.MaxSize {
		return false
	}
	return true
}

// FolderTree is a folder materialized together with its visible
// descendants and filtered files.
type FolderTree struct {
	Folder     *Folder       `json:"folder"`
	Files      []File        `json:"files"`
	Subfolders []*FolderTree `json:"subfolders"`
}

// TotalSize returns the aggregate size of the files in this subtree.
func (t *FolderTree) TotalSize() int64 {
	var total int64
	for i := range t.Files {
		total += t.Files[i].Size
	}
	for _, sub := range t.Subfolders {
		total += sub.TotalSize()
	}
	return total
}
