// Package access holds the permission predicates for the folder tree.
//
// The predicates are pure: they never touch the catalog or the filesystem,
// and they only inspect state already loaded on the model values. Callers
// are responsible for loading the folder ACL before asking.
package access

import "github.com/otymus27/portal-hrg/pkg/portal/models"

// CanAccess reports whether the user may see or mutate the folder.
// Administrators always can; everyone else must appear in the folder ACL.
func CanAccess(user *models.User, folder *models.Folder) bool {
	if user == nil || folder == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return folder.HasPermission(user.ID)
}

// CanCreateAt reports whether the user may create a folder under parent.
// A nil parent means a root-level folder: only administrators may create
// those. For any other location the rule reduces to CanAccess on the
// parent.
func CanCreateAt(user *models.User, parent *models.Folder) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if parent == nil {
		return false
	}
	return CanAccess(user, parent)
}
