package albumstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/adampresley/photogallery/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

type FilesystemStore struct {
	fs afero.Fs
}

/*
NewFilesystemStore roots a store at uploadFolder, creating the folder when
it does not exist yet. Every path is resolved through an afero.BasePathFs,
so nothing outside uploadFolder is reachable.
*/
func NewFilesystemStore(uploadFolder string) (*FilesystemStore, error) {
	osFs := afero.NewOsFs()

	if err := osFs.MkdirAll(uploadFolder, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload folder '%s': %w", uploadFolder, err)
	}

	return NewFilesystemStoreFromFs(afero.NewBasePathFs(osFs, uploadFolder)), nil
}

func NewFilesystemStoreFromFs(fs afero.Fs) *FilesystemStore {
	return &FilesystemStore{
		fs: fs,
	}
}

func (s *FilesystemStore) ListAlbumDirectories(ctx context.Context) ([]string, error) {
	var (
		err     error
		entries []os.FileInfo
	)

	result := []string{}

	if entries, err = afero.ReadDir(s.fs, "/"); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, nil
		}

		return result, fmt.Errorf("error reading upload folder: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			result = append(result, entry.Name())
		}
	}

	return result, nil
}

func (s *FilesystemStore) ListFiles(ctx context.Context, album string) ([]string, error) {
	var (
		err     error
		entries []os.FileInfo
	)

	if err = checkSegments(album); err != nil {
		return nil, err
	}

	if entries, err = afero.ReadDir(s.fs, albumPath(album)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("album '%s': %w", album, models.ErrNotFound)
		}

		return nil, fmt.Errorf("error reading album '%s': %w", album, err)
	}

	result := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			result = append(result, entry.Name())
		}
	}

	return result, nil
}

func (s *FilesystemStore) AlbumExists(ctx context.Context, album string) (bool, error) {
	if err := checkSegments(album); err != nil {
		return false, err
	}

	return afero.DirExists(s.fs, albumPath(album))
}

func (s *FilesystemStore) EnsureAlbum(ctx context.Context, album string) error {
	if err := checkSegments(album); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(albumPath(album), 0o755); err != nil {
		return fmt.Errorf("error creating album '%s': %w", album, err)
	}

	return nil
}

func (s *FilesystemStore) WriteFile(ctx context.Context, album, filename string, content io.Reader) error {
	if err := checkSegments(album, filename); err != nil {
		return err
	}

	if err := s.EnsureAlbum(ctx, album); err != nil {
		return err
	}

	if err := afero.WriteReader(s.fs, filePath(album, filename), content); err != nil {
		return fmt.Errorf("error writing '%s' to album '%s': %w", filename, album, err)
	}

	return nil
}

func (s *FilesystemStore) RemoveFile(ctx context.Context, album, filename string) error {
	if err := checkSegments(album, filename); err != nil {
		return err
	}

	if err := s.fs.Remove(filePath(album, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing '%s' from album '%s': %w", filename, album, err)
	}

	return nil
}

func (s *FilesystemStore) RemoveAlbum(ctx context.Context, album string) error {
	if err := checkSegments(album); err != nil {
		return err
	}

	if err := s.fs.RemoveAll(albumPath(album)); err != nil {
		return fmt.Errorf("error removing album '%s': %w", album, err)
	}

	return nil
}

func (s *FilesystemStore) RenameAlbum(ctx context.Context, oldName, newName string) error {
	var (
		err    error
		exists bool
	)

	if err = checkSegments(oldName, newName); err != nil {
		return err
	}

	if exists, err = afero.Exists(s.fs, albumPath(newName)); err != nil {
		return fmt.Errorf("error checking album '%s': %w", newName, err)
	}

	if exists {
		return fmt.Errorf("album '%s': %w", newName, models.ErrAlreadyExists)
	}

	if exists, err = afero.DirExists(s.fs, albumPath(oldName)); err != nil {
		return fmt.Errorf("error checking album '%s': %w", oldName, err)
	}

	if !exists {
		return fmt.Errorf("album '%s': %w", oldName, models.ErrNotFound)
	}

	if err = s.fs.Rename(albumPath(oldName), albumPath(newName)); err != nil {
		return fmt.Errorf("error renaming album '%s' to '%s': %w", oldName, newName, err)
	}

	return nil
}

func (s *FilesystemStore) FileExists(ctx context.Context, album, filename string) (bool, error) {
	if err := checkSegments(album, filename); err != nil {
		return false, err
	}

	return afero.Exists(s.fs, filePath(album, filename))
}

func (s *FilesystemStore) OpenFile(ctx context.Context, album, filename string) (models.PhotoFile, error) {
	var (
		err  error
		f    afero.File
		info os.FileInfo
		mime *mimetype.MIME
	)

	result := models.PhotoFile{}

	if err = checkSegments(album, filename); err != nil {
		return result, err
	}

	if f, err = s.fs.Open(filePath(album, filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("'%s' in album '%s': %w", filename, album, models.ErrNotFound)
		}

		return result, fmt.Errorf("error opening '%s' in album '%s': %w", filename, album, err)
	}

	if info, err = f.Stat(); err != nil {
		_ = f.Close()
		return result, fmt.Errorf("error reading '%s' in album '%s': %w", filename, album, err)
	}

	if info.IsDir() {
		_ = f.Close()
		return result, fmt.Errorf("'%s' in album '%s': %w", filename, album, models.ErrNotFound)
	}

	if mime, err = mimetype.DetectReader(f); err != nil {
		_ = f.Close()
		return result, fmt.Errorf("error detecting content type of '%s': %w", filename, err)
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return result, fmt.Errorf("error rewinding '%s': %w", filename, err)
	}

	result.Body = f
	result.Size = info.Size()
	result.ContentType = mime.String()
	result.ModTime = info.ModTime()

	return result, nil
}

func albumPath(album string) string {
	return path.Join("/", album)
}

func filePath(album, filename string) string {
	return path.Join("/", album, filename)
}
