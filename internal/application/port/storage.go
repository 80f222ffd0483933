package port

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned when no file exists at the requested path
var ErrFileNotFound = errors.New("file not found")

// FileStorage defines file storage operations. Paths are relative to the storage root.
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	DeleteDir(ctx context.Context, dir string) error
	GetFullPath(relativePath string) string
}
