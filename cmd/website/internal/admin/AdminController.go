package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/photogallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/adampresley/photogallery/pkg/services"
)

const (
	loginPath     = "/admin"
	dashboardPath = "/admin/dashboard"
)

type AdminControllerConfig struct {
	AuthService    services.AdminAuthServicer
	FlashService   sessions.Session[*models.FlashMessage]
	GalleryService services.GalleryServicer
	MaxUploadBytes int64
	Renderer       rendering.TemplateRenderer
	SessionService sessions.Session[*models.AdminSession]
	SiteName       string
}

type AdminController struct {
	authService    services.AdminAuthServicer
	flashService   sessions.Session[*models.FlashMessage]
	galleryService services.GalleryServicer
	maxUploadBytes int64
	renderer       rendering.TemplateRenderer
	sessionService sessions.Session[*models.AdminSession]
	siteName       string
}

func NewAdminController(config AdminControllerConfig) AdminController {
	return AdminController{
		authService:    config.AuthService,
		flashService:   config.FlashService,
		galleryService: config.GalleryService,
		maxUploadBytes: config.MaxUploadBytes,
		renderer:       config.Renderer,
		sessionService: config.SessionService,
		siteName:       config.SiteName,
	}
}

/*
GET /admin
*/
func (c AdminController) LoginPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.AdminLogin{
		BaseViewModel: c.baseViewModel(w, r, c.adminSession(r)),
	}

	c.renderer.Render("pages/admin/login", viewData, w)
}

/*
POST /admin
*/
func (c AdminController) LoginAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		session *models.AdminSession
	)

	password := httphelpers.GetFromRequest[string](r, "password")

	if session, err = c.authService.Authenticate(clientKey(r), password); err != nil {
		if errors.Is(err, models.ErrTooManyAttempts) {
			c.redirectWithFlash(w, r, loginPath, "Too many attempts. Please wait a minute and try again.", true)
			return
		}

		c.redirectWithFlash(w, r, loginPath, "Incorrect password.", true)
		return
	}

	if err = c.sessionService.Set(r, session); err != nil {
		slog.Error("error setting admin session", "error", err)
	}

	if err = c.sessionService.Save(w, r); err != nil {
		slog.Error("error saving session", "error", err)
	}

	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

/*
GET /admin/logout
*/
func (c AdminController) LogoutAction(w http.ResponseWriter, r *http.Request) {
	if err := c.sessionService.Destroy(w, r); err != nil {
		slog.Error("error destroying admin session", "error", err)
	}

	c.redirectWithFlash(w, r, loginPath, "Logged out.", false)
}

/*
GET /admin/dashboard
*/
func (c AdminController) DashboardPage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		albums []string
	)

	pageName := "pages/admin/dashboard"
	session := viewmodels.GetAdminSessionFromContext(r)

	viewData := viewmodels.AdminDashboard{
		BaseViewModel: c.baseViewModel(w, r, session),
		Albums:        []string{},
		LoggedInAt:    session.LoggedInAt,
	}

	if albums, err = c.galleryService.ListAlbumNames(r.Context()); err != nil {
		slog.Error("error listing albums for dashboard", "error", err)
		viewData.IsError = true
		viewData.Message = "There was a problem getting the album list."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Albums = albums
	c.renderer.Render(pageName, viewData, w)
}

/*
POST /admin/create_album
*/
func (c AdminController) CreateAlbumAction(w http.ResponseWriter, r *http.Request) {
	name, err := c.galleryService.CreateAlbum(r.Context(), c.adminSession(r), httphelpers.GetFromRequest[string](r, "album_name"))

	if c.handleError(w, r, err) {
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("Album \"%s\" created.", name), false)
}

/*
POST /admin/upload
*/
func (c AdminController) UploadAction(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		result models.UploadResult
	)

	session := c.adminSession(r)

	if !session.IsAdmin() {
		c.handleError(w, r, models.ErrForbidden)
		return
	}

	if err = c.parseMultipartForm(w, r); err != nil {
		c.redirectWithFlash(w, r, dashboardPath, "The upload could not be read. It may be too large.", true)
		return
	}

	album := r.FormValue("album_select")

	if album == "" {
		album = r.FormValue("album_name")
	}

	headers := r.MultipartForm.File["photos"]
	files := make([]models.UploadedFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))

	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, header := range headers {
		f, err := header.Open()

		if err != nil {
			slog.Error("error opening uploaded file", "error", err, "filename", header.Filename)
			continue
		}

		opened = append(opened, f)
		files = append(files, models.UploadedFile{Filename: header.Filename, Content: f})
	}

	result, err = c.galleryService.UploadPhotos(r.Context(), session, album, files)

	if c.handleError(w, r, err) {
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("%d photos saved to album %s.", result.Saved, result.Album), false)
}

/*
POST /admin/upload_capa
*/
func (c AdminController) UploadCoverAction(w http.ResponseWriter, r *http.Request) {
	var (
		err   error
		cover *models.UploadedFile
		name  string
	)

	session := c.adminSession(r)

	if !session.IsAdmin() {
		c.handleError(w, r, models.ErrForbidden)
		return
	}

	if err = c.parseMultipartForm(w, r); err != nil {
		c.redirectWithFlash(w, r, dashboardPath, "The upload could not be read. It may be too large.", true)
		return
	}

	if f, header, err := r.FormFile("capa"); err == nil {
		defer f.Close()
		cover = &models.UploadedFile{Filename: header.Filename, Content: f}
	}

	name, err = c.galleryService.SetCover(r.Context(), session, r.FormValue("album"), cover)

	if c.handleError(w, r, err) {
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("Cover for album \"%s\" updated.", name), false)
}

/*
POST /admin/delete_photo
*/
func (c AdminController) DeletePhotoAction(w http.ResponseWriter, r *http.Request) {
	removed, err := c.galleryService.DeletePhoto(
		r.Context(),
		c.adminSession(r),
		httphelpers.GetFromRequest[string](r, "album"),
		httphelpers.GetFromRequest[string](r, "filename"),
	)

	if c.handleError(w, r, err) {
		return
	}

	if !removed {
		http.Redirect(w, r, dashboardPath, http.StatusFound)
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, "Photo removed.", false)
}

/*
POST /admin/delete_album
*/
func (c AdminController) DeleteAlbumAction(w http.ResponseWriter, r *http.Request) {
	name, removed, err := c.galleryService.DeleteAlbum(r.Context(), c.adminSession(r), httphelpers.GetFromRequest[string](r, "album"))

	if c.handleError(w, r, err) {
		return
	}

	if !removed {
		http.Redirect(w, r, dashboardPath, http.StatusFound)
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("Album \"%s\" deleted.", name), false)
}

/*
POST /admin/rename_album
*/
func (c AdminController) RenameAlbumAction(w http.ResponseWriter, r *http.Request) {
	oldName, newName, err := c.galleryService.RenameAlbum(
		r.Context(),
		c.adminSession(r),
		httphelpers.GetFromRequest[string](r, "old_name"),
		httphelpers.GetFromRequest[string](r, "new_name"),
	)

	switch {
	case errors.Is(err, models.ErrAlreadyExists):
		c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("An album named \"%s\" already exists.", newName), true)
		return

	case errors.Is(err, models.ErrNotFound):
		c.redirectWithFlash(w, r, dashboardPath, "Album not found.", true)
		return
	}

	if c.handleError(w, r, err) {
		return
	}

	c.redirectWithFlash(w, r, dashboardPath, fmt.Sprintf("Album \"%s\" renamed to \"%s\".", oldName, newName), false)
}

/*
handleError writes the response for a failed admin operation and reports
whether it did so.
*/
func (c AdminController) handleError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false

	case errors.Is(err, models.ErrForbidden):
		httphelpers.WriteText(w, http.StatusForbidden, "Forbidden")

	case errors.Is(err, models.ErrEmptyAlbumName) && r.URL.Path == "/admin/rename_album":
		c.redirectWithFlash(w, r, dashboardPath, "The new name cannot be empty.", true)

	case errors.Is(err, models.ErrCoverFieldsMissing):
		c.redirectWithFlash(w, r, dashboardPath, "Select the album and the cover file.", true)

	case errors.Is(err, models.ErrExtensionNotAllowed):
		c.redirectWithFlash(w, r, dashboardPath, "Image format not allowed.", true)

	case errors.Is(err, models.ErrValidation):
		c.redirectWithFlash(w, r, dashboardPath, "Please check the album and file names.", true)

	case errors.Is(err, models.ErrNotFound):
		c.redirectWithFlash(w, r, dashboardPath, "Album not found.", true)

	default:
		slog.Error("admin operation failed", "error", err, "path", r.URL.Path)
		c.redirectWithFlash(w, r, dashboardPath, "An unexpected error occurred. Please try again.", true)
	}

	return true
}

func (c AdminController) parseMultipartForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadBytes)
	return r.ParseMultipartForm(c.maxUploadBytes)
}

func (c AdminController) adminSession(r *http.Request) *models.AdminSession {
	session, err := c.sessionService.Get(r)

	if err != nil {
		return nil
	}

	return session
}

func (c AdminController) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, message string, isError bool) {
	if err := c.flashService.Set(r, &models.FlashMessage{Message: message, IsError: isError}); err != nil {
		slog.Error("error setting flash message", "error", err)
	}

	if err := c.flashService.Save(w, r); err != nil {
		slog.Error("error saving flash message", "error", err)
	}

	http.Redirect(w, r, location, http.StatusFound)
}

/*
baseViewModel consumes the pending flash message, if any.
*/
func (c AdminController) baseViewModel(w http.ResponseWriter, r *http.Request, session *models.AdminSession) viewmodels.BaseViewModel {
	result := viewmodels.BaseViewModel{
		SiteName:           c.siteName,
		IsHtmx:             httphelpers.IsHtmx(r),
		IsAdmin:            session.IsAdmin(),
		JavascriptIncludes: []rendering.JavascriptInclude{},
	}

	if flash, err := c.flashService.Get(r); err == nil {
		result.ApplyFlash(flash)

		if err = c.flashService.Destroy(w, r); err != nil {
			slog.Error("error clearing flash message", "error", err)
		}
	}

	return result
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}

	return host
}
