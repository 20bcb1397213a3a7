package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/otymus27/portal-hrg/pkg/portal/models"
)

// Local is a local-disk implementation of Gateway.
type Local struct {
	root     string
	timeout  time.Duration
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Config holds configuration for the local gateway.
type Config struct {
	// Root is the storage root directory. It is created if missing.
	Root string `mapstructure:"root" yaml:"root"`

	// IOTimeout bounds every filesystem operation. Exceeding it fails
	// the operation with models.ErrIO. Zero disables the bound.
	IOTimeout time.Duration `mapstructure:"io_timeout" yaml:"io_timeout"`

	// DirMode is the permission mode for created directories.
	// Default: 0755
	DirMode os.FileMode `mapstructure:"dir_mode" yaml:"dir_mode,omitempty"`

	// FileMode is the permission mode for created files.
	// Default: 0644
	FileMode os.FileMode `mapstructure:"file_mode" yaml:"file_mode,omitempty"`
}

// DefaultConfig returns the default configuration for a storage root.
func DefaultConfig(root string) Config {
	return Config{
		Root:      root,
		IOTimeout: 30 * time.Second,
		DirMode:   0755,
		FileMode:  0644,
	}
}

// NewLocal creates a local gateway rooted at cfg.Root.
func NewLocal(cfg Config) (*Local, error) {
	if cfg.Root == "" {
		return nil, errors.New("storage root is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if err := os.MkdirAll(cfg.Root, cfg.DirMode); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("storage root is not a directory")
	}

	return &Local{
		root:     cfg.Root,
		timeout:  cfg.IOTimeout,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
	}, nil
}

// Root returns the storage root directory.
func (g *Local) Root() string {
	return g.root
}

// run executes fn under the configured deadline and converts failures to
// models.ErrIO. The goroutine is left to finish on timeout; filesystem
// calls cannot be interrupted portably.
func (g *Local) run(ctx context.Context, op, path string, fn func() error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", models.ErrIO, op, path, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s %s: %v", models.ErrIO, op, path, ctx.Err())
	}
}

func (g *Local) CreateDirectory(ctx context.Context, path string) error {
	return g.run(ctx, "mkdir", path, func() error {
		return os.Mkdir(path, g.dirMode)
	})
}

func (g *Local) CreateDirectoryAll(ctx context.Context, path string) error {
	return g.run(ctx, "mkdir -p", path, func() error {
		return os.MkdirAll(path, g.dirMode)
	})
}

func (g *Local) MoveDirectory(ctx context.Context, from, to string) error {
	return g.run(ctx, "move", from, func() error {
		// Permissive overwrite: an existing destination is replaced.
		if _, err := os.Stat(to); err == nil {
			if err := os.RemoveAll(to); err != nil {
				return err
			}
		}
		return os.Rename(from, to)
	})
}

func (g *Local) CopyTree(ctx context.Context, from, to string) error {
	return g.run(ctx, "copy tree", from, func() error {
		return filepath.WalkDir(from, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(from, path)
			if err != nil {
				return err
			}
			target := filepath.Join(to, rel)
			if d.IsDir() {
				return os.MkdirAll(target, g.dirMode)
			}
			return copyFileContents(path, target, g.fileMode)
		})
	})
}

func (g *Local) DeleteTree(ctx context.Context, path string) error {
	return g.run(ctx, "delete tree", path, func() error {
		return os.RemoveAll(path)
	})
}

func (g *Local) WriteStream(ctx context.Context, path string, r io.Reader) (int64, error) {
	var written int64
	err := g.run(ctx, "write", path, func() error {
		if err := os.MkdirAll(filepath.Dir(path), g.dirMode); err != nil {
			return err
		}

		// Write to a temporary file first, then rename for atomicity.
		tmpPath := path + ".tmp"
		f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, g.fileMode)
		if err != nil {
			return err
		}

		n, err := io.Copy(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmpPath)
			return err
		}

		if err := os.Rename(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return err
		}
		written = n
		return nil
	})
	return written, err
}

func (g *Local) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrIO, path, err)
	}
	return f, nil
}

func (g *Local) CopyFile(ctx context.Context, from, to string) error {
	return g.run(ctx, "copy", from, func() error {
		if err := os.MkdirAll(filepath.Dir(to), g.dirMode); err != nil {
			return err
		}
		return copyFileContents(from, to, g.fileMode)
	})
}

func (g *Local) MoveFile(ctx context.Context, from, to string) error {
	return g.run(ctx, "move", from, func() error {
		if err := os.MkdirAll(filepath.Dir(to), g.dirMode); err != nil {
			return err
		}
		return os.Rename(from, to)
	})
}

func (g *Local) DeleteFile(ctx context.Context, path string) error {
	return g.run(ctx, "delete", path, func() error {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	})
}

func (g *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFileContents(from, to string, mode os.FileMode) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

// Ensure Local implements Gateway.
var _ Gateway = (*Local)(nil)
