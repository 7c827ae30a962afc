package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	data := []byte("hello, image data")

	n, err := fs.Store(context.Background(), "img-1", "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(filepath.Join(fs.basePath, "img-1"))
	require.NoError(t, err)
	assert.Equal(t, data, content)

	// No temp files left behind.
	entries, err := os.ReadDir(fs.basePath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRetrieve(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()
	data := []byte("retrieve me")

	_, err := fs.Store(ctx, "img-2", "", bytes.NewReader(data))
	require.NoError(t, err)

	rc, err := fs.Retrieve(ctx, "img-2")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRetrieveNotFound(t *testing.T) {
	fs := NewFileSystem(t.TempDir())

	_, err := fs.Retrieve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	_, err := fs.Store(ctx, "img-3", "", bytes.NewReader([]byte("delete me")))
	require.NoError(t, err)

	require.NoError(t, fs.Delete(ctx, "img-3"))
	_, err = os.Stat(filepath.Join(fs.basePath, "img-3"))
	assert.True(t, os.IsNotExist(err), "expected file to be removed")

	assert.NoError(t, fs.Delete(ctx, "img-3"))
}

func TestInvalidKeys(t *testing.T) {
	fs := NewFileSystem(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "..", "../etc/passwd", "a/b", ".hidden"} {
		_, err := fs.Store(ctx, key, "", bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrInvalidKey, key)

		_, err = fs.Retrieve(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileSystemHasNoPublicURL(t *testing.T) {
	assert.Empty(t, NewFileSystem(t.TempDir()).PublicURL("img"))
}
