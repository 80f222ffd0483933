package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/port"
)

func TestLocalFileStorage_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewLocalFileStorage(dir, zap.NewNop())

	t.Run("creates parent directories", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "requests/1/ticket.pdf", []byte("%PDF")))
		assert.FileExists(t, filepath.Join(dir, "requests", "1", "ticket.pdf"))
		assert.NoFileExists(t, filepath.Join(dir, "requests", "1", "ticket.pdf.part"))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "requests/2/a.txt", []byte("original")))
		require.NoError(t, fs.Save(ctx, "requests/2/a.txt", []byte("updated")))

		content, err := fs.Read(ctx, "requests/2/a.txt")
		require.NoError(t, err)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := fs.Read(ctx, "requests/404/none.pdf")
		assert.ErrorIs(t, err, port.ErrFileNotFound)
	})
}

func TestLocalFileStorage_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	fs := NewLocalFileStorage(t.TempDir(), zap.NewNop())

	for _, path := range []string{"../outside.txt", "requests/../../etc/passwd"} {
		t.Run(path, func(t *testing.T) {
			assert.ErrorIs(t, fs.Save(ctx, path, []byte("x")), ErrPathEscapesRoot)
			_, err := fs.Read(ctx, path)
			assert.ErrorIs(t, err, ErrPathEscapesRoot)
		})
	}
	assert.ErrorIs(t, fs.DeleteDir(ctx, "."), ErrPathEscapesRoot)
}

func TestLocalFileStorage_Delete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewLocalFileStorage(dir, zap.NewNop())

	require.NoError(t, fs.Save(ctx, "requests/3/a.pdf", []byte("a")))
	require.NoError(t, fs.Save(ctx, "requests/3/b.pdf", []byte("b")))

	require.NoError(t, fs.Delete(ctx, "requests/3/a.pdf"))
	require.NoError(t, fs.Delete(ctx, "requests/3/a.pdf"))
	assert.NoFileExists(t, filepath.Join(dir, "requests", "3", "a.pdf"))

	require.NoError(t, fs.DeleteDir(ctx, "requests/3"))
	_, err := os.Stat(filepath.Join(dir, "requests", "3"))
	assert.True(t, os.IsNotExist(err))
}
