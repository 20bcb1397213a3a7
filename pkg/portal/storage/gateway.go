// Package storage provides the physical filesystem side of the portal:
// the Gateway interface consumed by the tree engine and its local-disk
// implementation.
package storage

import (
	"context"
	"io"
)

// Gateway executes physical filesystem operations on behalf of the tree
// engine. Implementations translate low-level failures into
// models.ErrIO so the engine can keep a single error taxonomy.
//
// The gateway is deliberately dumb: it takes fully resolved absolute
// paths and never consults the catalog. All path computation, permission
// checking and ordering lives in the engine.
type Gateway interface {
	// CreateDirectory creates a single directory. The parent must exist.
	CreateDirectory(ctx context.Context, path string) error

	// CreateDirectoryAll creates a directory and any missing parents.
	// It is idempotent: an existing directory is not an error.
	CreateDirectoryAll(ctx context.Context, path string) error

	// MoveDirectory relocates a directory tree. An existing destination
	// is replaced; callers that want strict collision rejection must
	// check Exists first.
	MoveDirectory(ctx context.Context, from, to string) error

	// CopyTree recursively copies a directory tree. The destination must
	// not exist yet.
	CopyTree(ctx context.Context, from, to string) error

	// DeleteTree removes a directory and everything below it.
	DeleteTree(ctx context.Context, path string) error

	// WriteStream writes the reader's content to path, replacing any
	// existing file, and returns the number of bytes written.
	WriteStream(ctx context.Context, path string, r io.Reader) (int64, error)

	// ReadStream opens the file at path for reading. The caller closes it.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)

	// CopyFile copies a single file. An existing destination is replaced.
	CopyFile(ctx context.Context, from, to string) error

	// MoveFile relocates a single file. An existing destination is
	// replaced.
	MoveFile(ctx context.Context, from, to string) error

	// DeleteFile removes a single file. A missing file is not an error.
	DeleteFile(ctx context.Context, path string) error

	// Exists reports whether a file or directory exists at path.
	Exists(path string) bool
}
