package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/bookscan/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library")
	backend, err := OpenBackend(dbPath, false, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("not a database"), 0644))

	backend, err := OpenBackend(filePath, false, nil)
	assert.Error(t, err)
	assert.Nil(t, backend)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackendWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	called := false
	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestBackendGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test-seq")
	require.NoError(t, err)
	defer seq.Release()

	first, err := seq.Next()
	require.NoError(t, err)
	second, err := seq.Next()
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestMakeBookOrderKey_Ordering(t *testing.T) {
	low := makeBookOrderKey(2)
	high := makeBookOrderKey(256)
	assert.Less(t, string(low), string(high))
	assert.Len(t, low, len(bookOrderPrefix)+8)
}
