package albumstore

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) AlbumStore

func runAlbumStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("empty store lists no albums", func(t *testing.T) {
		store := newStore(t)

		albums, err := store.ListAlbumDirectories(ctx)
		require.NoError(t, err)
		assert.Empty(t, albums)
	})

	t.Run("ensure album is idempotent", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.EnsureAlbum(ctx, "Trip_2024"))
		require.NoError(t, store.EnsureAlbum(ctx, "Trip_2024"))

		albums, err := store.ListAlbumDirectories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Trip_2024"}, albums)

		exists, err := store.AlbumExists(ctx, "Trip_2024")
		require.NoError(t, err)
		assert.True(t, exists)

		files, err := store.ListFiles(ctx, "Trip_2024")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("write file creates the album and overwrites", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.WriteFile(ctx, "beach", "a.png", strings.NewReader("first")))
		require.NoError(t, store.WriteFile(ctx, "beach", "a.png", strings.NewReader("second")))

		files, err := store.ListFiles(ctx, "beach")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, files)

		f, err := store.OpenFile(ctx, "beach", "a.png")
		require.NoError(t, err)
		defer f.Body.Close()

		b, err := io.ReadAll(f.Body)
		require.NoError(t, err)
		assert.Equal(t, "second", string(b))
		assert.Equal(t, int64(len("second")), f.Size)
	})

	t.Run("list files of a missing album is not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.ListFiles(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("open missing file is not found", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.EnsureAlbum(ctx, "beach"))

		_, err := store.OpenFile(ctx, "beach", "missing.png")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("file exists", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteFile(ctx, "beach", "capa.jpg", strings.NewReader("x")))

		exists, err := store.FileExists(ctx, "beach", "capa.jpg")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.FileExists(ctx, "beach", "capa.png")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("removing missing things is a no-op", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteFile(ctx, "beach", "a.png", strings.NewReader("x")))

		assert.NoError(t, store.RemoveFile(ctx, "beach", "missing.png"))
		assert.NoError(t, store.RemoveAlbum(ctx, "missing"))

		files, err := store.ListFiles(ctx, "beach")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, files)
	})

	t.Run("remove file and album", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteFile(ctx, "beach", "a.png", strings.NewReader("x")))
		require.NoError(t, store.WriteFile(ctx, "beach", "b.png", strings.NewReader("y")))

		require.NoError(t, store.RemoveFile(ctx, "beach", "a.png"))

		files, err := store.ListFiles(ctx, "beach")
		require.NoError(t, err)
		assert.Equal(t, []string{"b.png"}, files)

		require.NoError(t, store.RemoveAlbum(ctx, "beach"))

		exists, err := store.AlbumExists(ctx, "beach")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("rename album", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteFile(ctx, "old", "a.png", strings.NewReader("x")))

		require.NoError(t, store.RenameAlbum(ctx, "old", "new"))

		albums, err := store.ListAlbumDirectories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"new"}, albums)

		files, err := store.ListFiles(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, files)
	})

	t.Run("rename onto an existing album fails and changes nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.WriteFile(ctx, "A", "a.png", strings.NewReader("x")))
		require.NoError(t, store.WriteFile(ctx, "B", "b.png", strings.NewReader("y")))

		err := store.RenameAlbum(ctx, "A", "B")
		assert.ErrorIs(t, err, models.ErrAlreadyExists)

		albums, err := store.ListAlbumDirectories(ctx)
		require.NoError(t, err)
		sort.Strings(albums)
		assert.Equal(t, []string{"A", "B"}, albums)

		files, err := store.ListFiles(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, files)

		files, err = store.ListFiles(ctx, "B")
		require.NoError(t, err)
		assert.Equal(t, []string{"b.png"}, files)
	})

	t.Run("rename a missing album is not found", func(t *testing.T) {
		store := newStore(t)

		err := store.RenameAlbum(ctx, "ghost", "other")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unsafe segments are refused", func(t *testing.T) {
		store := newStore(t)

		for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b"} {
			assert.ErrorIs(t, store.EnsureAlbum(ctx, bad), models.ErrValidation, bad)
			assert.ErrorIs(t, store.WriteFile(ctx, "ok", bad, strings.NewReader("x")), models.ErrValidation, bad)
			assert.ErrorIs(t, store.RemoveAlbum(ctx, bad), models.ErrValidation, bad)
		}
	})
}
