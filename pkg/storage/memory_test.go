package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zots0127/onefile/pkg/storage"
)

func TestMemoryDisk_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewMemoryDisk("http://cdn.test/files")

	path, err := disk.Put(ctx, "/documents/7/", "test.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "documents/7/test.pdf", path)

	rc, err := disk.Get(ctx, "/documents/7/test.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	_, err = disk.Put(ctx, "/documents/70/", "other.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, disk.DeleteDirectory(ctx, "/documents/7/"))
	exists, err := disk.Exists(ctx, "/documents/7/test.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	// sibling directories sharing the id prefix survive
	assert.Equal(t, []string{"documents/70/other.pdf"}, disk.Keys("/documents"))
}

func TestMemoryDisk_GetMissing(t *testing.T) {
	disk := storage.NewMemoryDisk("")

	_, err := disk.Get(context.Background(), "/documents/7/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryDisk_DeleteDirectory(t *testing.T) {
	ctx := context.Background()
	disk := storage.NewMemoryDisk("")

	assert.NoError(t, disk.DeleteDirectory(ctx, "/documents/1/"), "missing directory is not an error")
	assert.ErrorIs(t, disk.DeleteDirectory(ctx, "/"), storage.ErrInvalidPath)
}

func TestMemoryDisk_URL(t *testing.T) {
	ctx := context.Background()

	url, err := storage.NewMemoryDisk("http://cdn.test/files/").URL(ctx, "/documents/7/my file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/files/documents/7/my%20file.pdf", url)

	_, err = storage.NewMemoryDisk("").URL(ctx, "/documents/7/a.pdf")
	assert.ErrorIs(t, err, storage.ErrURLUnsupported)
}
