package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-interactions/utils"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "store.json"), utils.NewTestLogger())
	require.NoError(t, err)
	testStoreContract(t, s)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	_, err = s.Set(ctx, "guild-1", Record{"prefix": "!"})
	require.NoError(t, err)

	tmp, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmp)

	reopened, err := NewFileStore(path, nil)
	require.NoError(t, err)
	r, err := reopened.Get(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, Record{"prefix": "!"}, r)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStore(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestFileStoreNull(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0600))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	_, err = s.Set(ctx, "k", Record{"v": "1"})
	require.NoError(t, err)
	r, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Record{"v": "1"}, r)
}

func TestFileStoreSharedPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	a, err := NewFileStore(path, nil)
	require.NoError(t, err)
	b, err := NewFileStore(path, nil)
	require.NoError(t, err)

	done := make(chan error, 2)
	for _, s := range []*FileStore{a, b} {
		go func(s *FileStore) {
			var err error
			for i := 0; i < 20 && err == nil; i++ {
				_, err = s.Set(ctx, "k", Record{"n": i})
			}
			done <- err
		}(s)
	}
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	tmp, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmp)
}

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("", nil)
	require.ErrorIs(t, err, utils.ErrInvalid)
}
