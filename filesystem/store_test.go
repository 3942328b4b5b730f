package filesystem_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/sendfile/filesystem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T, files map[string]string) *filesystem.Store {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(mem, name, []byte(content), 0o644))
	}
	return filesystem.NewFileStorage(mem)
}

func readWindow(t *testing.T, store *filesystem.Store, name string, start, end int64) string {
	t.Helper()
	rc, err := store.Open(context.Background(), name, start, end)
	require.NoError(t, err)
	defer func() { assert.NoError(t, rc.Close()) }()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestStore_Stat_File(t *testing.T) {
	store := newMemStore(t, map[string]string{"/www/nums.txt": "123456789"})

	stat, err := store.Stat(context.Background(), "/www/nums.txt")

	require.NoError(t, err)
	assert.Equal(t, int64(9), stat.Size)
	assert.False(t, stat.IsDir)
	assert.False(t, stat.ModTime.IsZero())
	assert.NotZero(t, stat.Identity)
}

func TestStore_Stat_Directory(t *testing.T) {
	store := newMemStore(t, map[string]string{"/www/pets/index.html": "tobi"})

	stat, err := store.Stat(context.Background(), "/www/pets")

	require.NoError(t, err)
	assert.True(t, stat.IsDir)
}

func TestStore_Stat_NotFound(t *testing.T) {
	store := newMemStore(t, nil)

	_, err := store.Stat(context.Background(), "/missing.txt")

	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_Stat_ContextCanceled(t *testing.T) {
	store := newMemStore(t, map[string]string{"/a.txt": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Stat(ctx, "/a.txt")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_Open_Windows(t *testing.T) {
	store := newMemStore(t, map[string]string{"/nums.txt": "123456789"})

	tests := []struct {
		name       string
		start, end int64
		want       string
	}{
		{name: "full", start: 0, end: 8, want: "123456789"},
		{name: "middle", start: 2, end: 5, want: "3456"},
		{name: "single byte", start: 3, end: 3, want: "4"},
		{name: "end past size", start: 7, end: 50, want: "89"},
		{name: "empty window", start: 0, end: -1, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readWindow(t, store, "/nums.txt", tt.start, tt.end))
		})
	}
}

func TestStore_Open_NotFound(t *testing.T) {
	store := newMemStore(t, nil)

	rc, err := store.Open(context.Background(), "/missing.txt", 0, 10)

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Nil(t, rc)
}

func TestStore_Open_ContextCanceledMidRead(t *testing.T) {
	store := newMemStore(t, map[string]string{"/nums.txt": "123456789"})

	ctx, cancel := context.WithCancel(context.Background())
	rc, err := store.Open(ctx, "/nums.txt", 0, 8)
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 2)
	n, err := rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "12", string(buf[:n]))

	cancel()

	_, err = rc.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOSStorage_ReadsRealFiles(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "name.txt")
	require.NoError(t, os.WriteFile(name, []byte("tobi"), 0o644))

	store := filesystem.NewOSStorage()

	stat, err := store.Stat(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stat.Size)

	assert.Equal(t, "ob", readWindow(t, store, name, 1, 2))
}

func TestOSStorage_IdentityDistinguishesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0o644))

	store := filesystem.NewOSStorage()

	sa, err := store.Stat(context.Background(), a)
	require.NoError(t, err)
	sb, err := store.Stat(context.Background(), b)
	require.NoError(t, err)

	assert.NotEqual(t, sa.Identity, sb.Identity)
}
