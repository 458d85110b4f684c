package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemBackend_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileSystemBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	key, err := b.Put(ctx, []byte("payload"))
	require.NoError(t, err)

	got, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	keys, err := b.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, b.Delete(ctx, key))
	_, err = b.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemBackend_ContentAddressedDedup(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileSystemBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	k1, err := b.Put(ctx, []byte("same bytes"))
	require.NoError(t, err)
	k2, err := b.Put(ctx, []byte("same bytes"))
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	keys, err := b.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestNewFileSystemBackend_RejectsEmptyDir(t *testing.T) {
	_, err := NewFileSystemBackend("")
	assert.ErrorIs(t, err, ErrRejected)
}
