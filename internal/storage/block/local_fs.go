package block

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS implements Storage against the local filesystem.
type LocalFS struct {
	baseDir string
}

// NewLocalFS creates a new local filesystem storage backend.
func NewLocalFS(config Config) (*LocalFS, error) {
	baseDir := config.BaseDir
	if baseDir == "" {
		return nil, fmt.Errorf("base_dir is required for local filesystem storage")
	}

	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalFS{
		baseDir: baseDir,
	}, nil
}

// Reader returns a reader for the specified path
func (lfs *LocalFS) Reader(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := lfs.getFullPath(path)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "open", Path: path, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	return file, nil
}

// Writer returns a writer for the specified path
func (lfs *LocalFS) Writer(ctx context.Context, path string) (io.WriteCloser, error) {
	fullPath := lfs.getFullPath(path)

	// Ensure directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: path, Err: err}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}

	return file, nil
}

// List returns metadata for all files with the specified prefix
func (lfs *LocalFS) List(ctx context.Context, prefix string) ([]*Metadata, error) {
	fullPrefix := lfs.getFullPath(prefix)

	var results []*Metadata

	err := filepath.Walk(fullPrefix, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			// Convert back to relative path
			relPath, err := filepath.Rel(lfs.baseDir, path)
			if err != nil {
				return err
			}

			// Normalize path separators
			relPath = filepath.ToSlash(relPath)

			results = append(results, &Metadata{
				Path:    relPath,
				Size:    info.Size(),
				ModTime: info.ModTime().Unix(),
			})
		}

		return nil
	})

	if err != nil {
		if os.IsNotExist(err) {
			return []*Metadata{}, nil // Return empty slice for non-existent prefix
		}
		return nil, &StorageError{Op: "list", Path: prefix, Err: err}
	}

	return results, nil
}

// EnsureDir creates the named directory, and its parents, if they don't exist.
func (lfs *LocalFS) EnsureDir(ctx context.Context, name string) error {
	fullPath := lfs.getFullPath(name)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return &StorageError{Op: "mkdir", Path: name, Err: err}
	}
	return nil
}

// Health checks the health of the storage
func (lfs *LocalFS) Health(ctx context.Context) error {
	// Check if base directory is accessible
	info, err := os.Stat(lfs.baseDir)
	if err != nil {
		return fmt.Errorf("base directory not accessible: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("base path is not a directory")
	}

	// Try to create a temporary file to test write permissions
	tempFile := filepath.Join(lfs.baseDir, ".health_check_temp")
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("cannot write to storage: %w", err)
	}
	file.Close()
	os.Remove(tempFile)

	return nil
}

// getFullPath converts a relative path to a full path within the base directory
func (lfs *LocalFS) getFullPath(path string) string {
	// Clean the path to prevent directory traversal attacks: cleaning it as a
	// rooted path drops any leading ".." elements
	cleanPath := filepath.Clean("/" + path)

	// Remove leading slash if present
	cleanPath = strings.TrimPrefix(cleanPath, "/")

	// Join with base directory
	return filepath.Join(lfs.baseDir, cleanPath)
}
