package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/photogallery/pkg/albumstore"
	"github.com/adampresley/photogallery/pkg/metrics"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/alitto/pond/v2"
)

const (
	FallbackAlbumName = "album"
	CoverBaseName     = "capa"
	DefaultCoverURL   = "/static/images/default-cover.svg"
)

var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "webp", "gif"}

type GalleryServicer interface {
	ListAlbums(ctx context.Context, search string) ([]models.Album, error)
	ListAlbumNames(ctx context.Context) ([]string, error)
	ListPhotos(ctx context.Context, album string) ([]models.Photo, error)
	OpenPhoto(ctx context.Context, album, filename string) (models.PhotoFile, error)
	CreateAlbum(ctx context.Context, session *models.AdminSession, rawName string) (string, error)
	RenameAlbum(ctx context.Context, session *models.AdminSession, oldRawName, newRawName string) (string, string, error)
	DeleteAlbum(ctx context.Context, session *models.AdminSession, rawName string) (string, bool, error)
	UploadPhotos(ctx context.Context, session *models.AdminSession, albumRawName string, files []models.UploadedFile) (models.UploadResult, error)
	SetCover(ctx context.Context, session *models.AdminSession, albumRawName string, file *models.UploadedFile) (string, error)
	DeletePhoto(ctx context.Context, session *models.AdminSession, albumRawName, rawFilename string) (bool, error)
}

type GalleryServiceConfig struct {
	AllowedExtensions []string
	DefaultCoverURL   string
	MaxUploadWorkers  int
	Metrics           metrics.GalleryMetrics
	Store             albumstore.AlbumStore
}

type GalleryService struct {
	allowedExtensions []string
	defaultCoverURL   string
	maxUploadWorkers  int
	metrics           metrics.GalleryMetrics
	store             albumstore.AlbumStore
}

func NewGalleryService(config GalleryServiceConfig) GalleryService {
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = DefaultAllowedExtensions
	}

	if config.DefaultCoverURL == "" {
		config.DefaultCoverURL = DefaultCoverURL
	}

	if config.MaxUploadWorkers <= 0 {
		config.MaxUploadWorkers = 1
	}

	if config.Metrics == nil {
		config.Metrics = metrics.NewNoopMetrics()
	}

	return GalleryService{
		allowedExtensions: config.AllowedExtensions,
		defaultCoverURL:   config.DefaultCoverURL,
		maxUploadWorkers:  config.MaxUploadWorkers,
		metrics:           config.Metrics,
		store:             config.Store,
	}
}

/*
ListAlbums returns every album sorted case-insensitively, keeping only
names that contain search (case-insensitive) when search is not blank.
*/
func (s GalleryService) ListAlbums(ctx context.Context, search string) ([]models.Album, error) {
	var (
		err   error
		names []string
	)

	result := []models.Album{}
	search = strings.ToLower(strings.TrimSpace(search))

	if names, err = s.store.ListAlbumDirectories(ctx); err != nil {
		return result, fmt.Errorf("error listing albums: %w", err)
	}

	for _, name := range names {
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}

		result = append(result, models.Album{
			Name:     name,
			CoverURL: s.resolveCoverURL(ctx, name),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})

	return result, nil
}

func (s GalleryService) ListAlbumNames(ctx context.Context) ([]string, error) {
	names, err := s.store.ListAlbumDirectories(ctx)

	if err != nil {
		return []string{}, fmt.Errorf("error listing album names: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

/*
ListPhotos returns the photos of an album sorted by filename. The cover
and anything without an allowed extension are left out.
*/
func (s GalleryService) ListPhotos(ctx context.Context, album string) ([]models.Photo, error) {
	var (
		err   error
		files []string
	)

	name := SanitizeIdentifier(album)

	if name == "" {
		return nil, fmt.Errorf("album '%s': %w", album, models.ErrNotFound)
	}

	if files, err = s.store.ListFiles(ctx, name); err != nil {
		return nil, fmt.Errorf("error listing photos for album '%s': %w", name, err)
	}

	photos := make([]string, 0, len(files))

	for _, f := range files {
		if !strings.HasPrefix(f, CoverBaseName) && IsAllowedExtension(f, s.allowedExtensions) {
			photos = append(photos, f)
		}
	}

	sort.Strings(photos)

	return slices.Map(photos, func(f string, index int) models.Photo {
		return models.Photo{
			Album:    name,
			Filename: f,
			URL:      FileURL(name, f),
		}
	}), nil
}

/*
OpenPhoto opens a photo or cover for serving. Files outside the allowed
extensions are reported as not found.
*/
func (s GalleryService) OpenPhoto(ctx context.Context, album, filename string) (models.PhotoFile, error) {
	albumName := SanitizeIdentifier(album)
	fileName := SanitizeIdentifier(filename)

	if albumName == "" || fileName == "" || !IsAllowedExtension(fileName, s.allowedExtensions) {
		return models.PhotoFile{}, fmt.Errorf("'%s' in album '%s': %w", filename, album, models.ErrNotFound)
	}

	return s.store.OpenFile(ctx, albumName, fileName)
}

func (s GalleryService) CreateAlbum(ctx context.Context, session *models.AdminSession, rawName string) (string, error) {
	var err error

	defer s.observe("create_album", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return "", err
	}

	name := sanitizeAlbumName(rawName)

	if err = s.store.EnsureAlbum(ctx, name); err != nil {
		return name, err
	}

	slog.Info("album created", "album", name)
	return name, nil
}

/*
RenameAlbum returns the sanitized old and new names alongside any error so
callers can report what was actually attempted.
*/
func (s GalleryService) RenameAlbum(ctx context.Context, session *models.AdminSession, oldRawName, newRawName string) (string, string, error) {
	var err error

	defer s.observe("rename_album", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return "", "", err
	}

	oldName := SanitizeIdentifier(oldRawName)
	newName := SanitizeIdentifier(newRawName)

	if newName == "" {
		err = models.ErrEmptyAlbumName
		return oldName, newName, err
	}

	if oldName == "" {
		err = fmt.Errorf("album '%s': %w", oldRawName, models.ErrNotFound)
		return oldName, newName, err
	}

	if err = s.store.RenameAlbum(ctx, oldName, newName); err != nil {
		return oldName, newName, err
	}

	slog.Info("album renamed", "from", oldName, "to", newName)
	return oldName, newName, nil
}

/*
DeleteAlbum removes an album and everything in it. Deleting an album that
does not exist succeeds and reports false.
*/
func (s GalleryService) DeleteAlbum(ctx context.Context, session *models.AdminSession, rawName string) (string, bool, error) {
	var (
		err    error
		exists bool
	)

	defer s.observe("delete_album", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return "", false, err
	}

	name := SanitizeIdentifier(rawName)

	if name == "" {
		err = models.ErrEmptyAlbumName
		return name, false, err
	}

	if exists, err = s.store.AlbumExists(ctx, name); err != nil || !exists {
		return name, false, err
	}

	if err = s.store.RemoveAlbum(ctx, name); err != nil {
		return name, false, err
	}

	slog.Info("album deleted", "album", name)
	return name, true, nil
}

/*
UploadPhotos writes every file with an allowed extension into the album,
creating the album first when needed. Files with any other extension are
skipped. When several files clean up to the same name only the last one
is written. A file named capa.<ext> replaces the album cover. Writes run
on a bounded worker pool; if any of them fails the errors are joined and
returned once all of them have finished.
*/
func (s GalleryService) UploadPhotos(ctx context.Context, session *models.AdminSession, albumRawName string, files []models.UploadedFile) (models.UploadResult, error) {
	var (
		err      error
		saved    atomic.Int64
		mu       sync.Mutex
		writeErr error
	)

	defer s.observe("upload_photos", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return models.UploadResult{}, err
	}

	result := models.UploadResult{
		Album: sanitizeAlbumName(albumRawName),
	}

	if err = s.store.EnsureAlbum(ctx, result.Album); err != nil {
		return result, err
	}

	photos, covers, skipped := s.planUploads(result.Album, files)
	result.Skipped = skipped

	pool := pond.NewPool(s.maxUploadWorkers, pond.WithContext(ctx))

	for _, photo := range photos {
		pool.Submit(func() {
			if e := s.store.WriteFile(ctx, result.Album, photo.Filename, photo.Content); e != nil {
				slog.Error("error saving photo", "album", result.Album, "filename", photo.Filename, "error", e)

				mu.Lock()
				writeErr = errors.Join(writeErr, e)
				mu.Unlock()

				return
			}

			saved.Add(1)
		})
	}

	if e := pool.Stop().Wait(); e != nil {
		slog.Error("error waiting for upload workers", "album", result.Album, "error", e)
	}

	for _, cover := range covers {
		if e := s.replaceCover(ctx, result.Album, cover); e != nil {
			slog.Error("error saving cover", "album", result.Album, "filename", cover.Filename, "error", e)
			writeErr = errors.Join(writeErr, e)
			continue
		}

		saved.Add(1)
	}

	result.Saved = int(saved.Load())
	s.metrics.PhotosSaved(result.Saved)

	if writeErr != nil {
		err = writeErr
		return result, err
	}

	if err = ctx.Err(); err != nil {
		return result, err
	}

	slog.Info("photos uploaded", "album", result.Album, "saved", result.Saved, "skipped", result.Skipped)
	return result, nil
}

/*
planUploads sanitizes the incoming file names and splits them into photos
and covers. A later file with the same cleaned name supersedes an earlier
one, which then counts as skipped. Covers keep their input order.
*/
func (s GalleryService) planUploads(album string, files []models.UploadedFile) ([]models.UploadedFile, []models.UploadedFile, int) {
	skipped := 0
	order := []string{}
	latest := map[string]models.UploadedFile{}

	for _, file := range files {
		filename := SanitizeIdentifier(file.Filename)

		if file.Content == nil || filename == "" || !IsAllowedExtension(filename, s.allowedExtensions) {
			slog.Debug("skipping upload", "album", album, "filename", file.Filename)
			skipped++
			continue
		}

		if _, ok := latest[filename]; ok {
			slog.Debug("upload superseded by a later file with the same name", "album", album, "filename", filename)
			skipped++
		} else {
			order = append(order, filename)
		}

		latest[filename] = models.UploadedFile{Filename: filename, Content: file.Content}
	}

	photos := []models.UploadedFile{}
	covers := []models.UploadedFile{}

	for _, filename := range order {
		if isCoverFilename(filename) {
			covers = append(covers, latest[filename])
			continue
		}

		photos = append(photos, latest[filename])
	}

	return photos, covers, skipped
}

/*
SetCover replaces the album cover. Every existing capa.<ext> is removed
before the new one is written, so at most one cover exists afterwards.
*/
func (s GalleryService) SetCover(ctx context.Context, session *models.AdminSession, albumRawName string, file *models.UploadedFile) (string, error) {
	var err error

	defer s.observe("set_cover", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return "", err
	}

	name := SanitizeIdentifier(albumRawName)

	if name == "" || file == nil || file.Content == nil || file.Filename == "" {
		err = models.ErrCoverFieldsMissing
		return name, err
	}

	if !IsAllowedExtension(file.Filename, s.allowedExtensions) {
		err = models.ErrExtensionNotAllowed
		return name, err
	}

	if err = s.store.EnsureAlbum(ctx, name); err != nil {
		return name, err
	}

	if err = s.replaceCover(ctx, name, *file); err != nil {
		return name, err
	}

	slog.Info("album cover updated", "album", name)
	return name, nil
}

func (s GalleryService) replaceCover(ctx context.Context, album string, file models.UploadedFile) error {
	for _, ext := range s.allowedExtensions {
		if err := s.store.RemoveFile(ctx, album, coverFilename(ext)); err != nil {
			return err
		}
	}

	return s.store.WriteFile(ctx, album, coverFilename(ExtensionOf(file.Filename)), file.Content)
}

/*
DeletePhoto removes a single photo. A photo that is already gone is not an
error; the returned bool says whether anything was removed.
*/
func (s GalleryService) DeletePhoto(ctx context.Context, session *models.AdminSession, albumRawName, rawFilename string) (bool, error) {
	var (
		err    error
		exists bool
	)

	defer s.observe("delete_photo", time.Now(), &err)

	if err = requireAdmin(session); err != nil {
		return false, err
	}

	albumName := SanitizeIdentifier(albumRawName)
	filename := SanitizeIdentifier(rawFilename)

	if albumName == "" {
		err = models.ErrEmptyAlbumName
		return false, err
	}

	if filename == "" {
		err = models.ErrEmptyFilename
		return false, err
	}

	if exists, err = s.store.FileExists(ctx, albumName, filename); err != nil || !exists {
		return false, err
	}

	if err = s.store.RemoveFile(ctx, albumName, filename); err != nil {
		return false, err
	}

	slog.Info("photo deleted", "album", albumName, "filename", filename)
	return true, nil
}

func (s GalleryService) resolveCoverURL(ctx context.Context, album string) string {
	for _, ext := range s.allowedExtensions {
		cover := coverFilename(ext)
		exists, err := s.store.FileExists(ctx, album, cover)

		if err != nil {
			slog.Error("error probing album cover", "album", album, "cover", cover, "error", err)
			continue
		}

		if exists {
			return FileURL(album, cover)
		}
	}

	return s.defaultCoverURL
}

func (s GalleryService) observe(operation string, start time.Time, err *error) {
	s.metrics.ObserveOperation(operation, *err, time.Since(start))
}

/*
FileURL is the public URL a photo or cover is served from.
*/
func FileURL(album, filename string) string {
	return "/uploads/" + url.PathEscape(album) + "/" + url.PathEscape(filename)
}

func requireAdmin(session *models.AdminSession) error {
	if !session.IsAdmin() {
		return models.ErrForbidden
	}

	return nil
}

func sanitizeAlbumName(raw string) string {
	if name := SanitizeIdentifier(raw); name != "" {
		return name
	}

	return FallbackAlbumName
}

func coverFilename(ext string) string {
	return CoverBaseName + "." + ext
}

func isCoverFilename(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	return idx >= 0 && filename[:idx] == CoverBaseName
}
