package models

import "errors"

// Common errors for portal operations. Callers classify failures with
// errors.Is; operation code wraps these with fmt.Errorf("%w: ...") to
// attach context.
var (
	// Validation errors
	ErrInvalidName      = errors.New("name contains no usable characters")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidReference = errors.New("referenced entity does not exist")

	// Folder errors
	ErrFolderNotFound = errors.New("folder not found")
	ErrNameConflict   = errors.New("a folder or file with this name already exists at the target location")
	ErrFolderNotEmpty = errors.New("folder is not empty")

	// File errors
	ErrFileNotFound = errors.New("file not found")

	// Permission errors
	ErrPermissionDenied = errors.New("permission denied")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Filesystem errors
	ErrIO = errors.New("filesystem operation failed")
)
