/*
Package albumstore maps albums and photos onto a storage backend. An album
is a directory (or key prefix) directly under the store root and a photo is
a file directly inside it.
*/
package albumstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adampresley/photogallery/pkg/models"
)

type AlbumStore interface {
	ListAlbumDirectories(ctx context.Context) ([]string, error)
	ListFiles(ctx context.Context, album string) ([]string, error)
	AlbumExists(ctx context.Context, album string) (bool, error)
	EnsureAlbum(ctx context.Context, album string) error
	WriteFile(ctx context.Context, album, filename string, content io.Reader) error
	RemoveFile(ctx context.Context, album, filename string) error
	RemoveAlbum(ctx context.Context, album string) error
	RenameAlbum(ctx context.Context, oldName, newName string) error
	FileExists(ctx context.Context, album, filename string) (bool, error)
	OpenFile(ctx context.Context, album, filename string) (models.PhotoFile, error)
}

/*
checkSegments refuses anything that could not be used as a single path
segment under the store root.
*/
func checkSegments(segments ...string) error {
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\\x00") {
			return fmt.Errorf("%w: %q", models.ErrInvalidPathSegment, s)
		}
	}

	return nil
}
