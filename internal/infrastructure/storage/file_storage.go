package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/travel-support/internal/application/port"
	"go.uber.org/zap"
)

// ErrPathEscapesRoot is returned for paths that resolve outside the storage root
var ErrPathEscapesRoot = errors.New("path escapes storage root")

// LocalFileStorage implements port.FileStorage on the local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage rooted at baseDir
func NewLocalFileStorage(baseDir string, logger *zap.Logger) port.FileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content to path, creating parent directories and replacing any existing file
func (s *LocalFileStorage) Save(ctx context.Context, path string, content []byte) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create parent directories", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// write then rename so readers never see a half-written attachment
	tmp := fullPath + ".part"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		s.logger.Error("Failed to write file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("File saved", zap.String("path", fullPath), zap.Int("size", len(content)))
	return nil
}

// Read returns the content stored at path, or port.ErrFileNotFound
func (s *LocalFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", port.ErrFileNotFound, path)
	}
	if err != nil {
		s.logger.Error("Failed to read file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Delete removes the file at path. Missing files are not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DeleteDir removes dir and everything below it
func (s *LocalFileStorage) DeleteDir(ctx context.Context, dir string) error {
	fullPath, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if fullPath == filepath.Clean(s.baseDir) {
		return fmt.Errorf("%w: refusing to delete the root", ErrPathEscapesRoot)
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}
	return nil
}

// GetFullPath converts a relative path to full path
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// resolve joins path onto the root and rejects results outside it
func (s *LocalFileStorage) resolve(path string) (string, error) {
	fullPath := s.GetFullPath(path)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	if absPath != absBase && !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}
	return fullPath, nil
}
