package logger

// Standard field keys. Using the same key for the same concept across
// the codebase keeps log aggregation queries simple.
const (
	// Request correlation
	KeyRequestID = "request_id"
	KeyRoute     = "route"

	// Actors
	KeyUsername = "username"
	KeyUserID   = "user_id"
	KeyClientIP = "client_ip"
	KeyRole     = "role"

	// Tree entities
	KeyFolder   = "folder"
	KeyFolderID = "folder_id"
	KeyFile     = "file"
	KeyFileID   = "file_id"
	KeyPath     = "path"
	KeyOldPath  = "old_path"
	KeyNewPath  = "new_path"
	KeySize     = "size"

	// Operations
	KeyOp         = "op"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)
