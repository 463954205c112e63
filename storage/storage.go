package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/scribekit/errors"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is the read side of an object store. Missing objects are
// reported as SourceUnavailable errors.
type Storage interface {
	// Download returns a reader for the object at path. The caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns the object's metadata.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}

// Fetch copies the object at path into the local file dst and returns the
// number of bytes written. A partially written dst is removed.
func Fetch(ctx context.Context, s Storage, path, dst string) (int64, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, fmt.Errorf("storage: create directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("storage: create file: %w", err)
	}
	n, err := io.Copy(f, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return n, errors.SourceUnavailable(path, err)
	}
	return n, nil
}
