package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compile-time check that FileSystem implements Storage.
var _ Storage = (*FileSystem)(nil)

// FileSystem implements Storage using the local filesystem.
// Files are stored at <basePath>/<key>.
type FileSystem struct {
	basePath string
}

// NewFileSystem creates a new FileSystem storage rooted at basePath.
func NewFileSystem(basePath string) *FileSystem {
	return &FileSystem{basePath: basePath}
}

func (fs *FileSystem) path(key string) string {
	return filepath.Join(fs.basePath, key)
}

// Store writes data from the reader to disk using atomic write (temp file + rename).
// It returns the number of bytes written.
func (fs *FileSystem) Store(_ context.Context, key, _ string, data io.Reader) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", fs.basePath, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(fs.basePath, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	dst := fs.path(key)
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, fmt.Errorf("renaming temp file to %s: %w", dst, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""

	return n, nil
}

// Retrieve opens the stored file and returns an io.ReadCloser.
func (fs *FileSystem) Retrieve(_ context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	path := fs.path(key)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	return f, nil
}

// Delete removes the stored file. Deleting a missing key is not an error.
func (fs *FileSystem) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	path := fs.path(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing file %s: %w", path, err)
	}
	return nil
}

// PublicURL is always empty: filesystem blobs are served by the media route.
func (fs *FileSystem) PublicURL(string) string {
	return ""
}
