package home

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/photogallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/photogallery/pkg/models"
	"github.com/adampresley/photogallery/pkg/services"
)

type HomeHandlers interface {
	HomePage(w http.ResponseWriter, r *http.Request)
	AlbumPage(w http.ResponseWriter, r *http.Request)
	UploadedFile(w http.ResponseWriter, r *http.Request)
}

type HomeControllerConfig struct {
	GalleryService services.GalleryServicer
	Renderer       rendering.TemplateRenderer
	SessionService sessions.Session[*models.AdminSession]
	SiteName       string
}

type HomeController struct {
	galleryService services.GalleryServicer
	renderer       rendering.TemplateRenderer
	sessionService sessions.Session[*models.AdminSession]
	siteName       string
}

func NewHomeController(config HomeControllerConfig) HomeController {
	return HomeController{
		galleryService: config.GalleryService,
		renderer:       config.Renderer,
		sessionService: config.SessionService,
		siteName:       config.SiteName,
	}
}

/*
GET /
*/
func (c HomeController) HomePage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		albums []models.Album
	)

	pageName := "pages/home"

	viewData := viewmodels.HomePage{
		BaseViewModel: c.baseViewModel(r),
		Albums:        []models.Album{},
		Query:         httphelpers.GetFromRequest[string](r, "q"),
	}

	if albums, err = c.galleryService.ListAlbums(r.Context(), viewData.Query); err != nil {
		slog.Error("error listing albums", "error", err, "query", viewData.Query)
		viewData.IsError = true
		viewData.Message = "There was a problem getting the albums for this page."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Albums = albums
	c.renderer.Render(pageName, viewData, w)
}

/*
GET /album/{name}
*/
func (c HomeController) AlbumPage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		photos []models.Photo
	)

	pageName := "pages/album"

	viewData := viewmodels.AlbumPage{
		BaseViewModel: c.baseViewModel(r),
		Album:         httphelpers.GetFromRequest[string](r, "name"),
		Photos:        []models.Photo{},
	}

	if photos, err = c.galleryService.ListPhotos(r.Context(), viewData.Album); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			c.renderer.Render("pages/not-found", viewData, w)
			return
		}

		slog.Error("error listing photos", "error", err, "album", viewData.Album)
		viewData.IsError = true
		viewData.Message = "There was a problem getting the photos in this album."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Photos = photos
	c.renderer.Render(pageName, viewData, w)
}

/*
GET /uploads/{album}/{filename}
*/
func (c HomeController) UploadedFile(w http.ResponseWriter, r *http.Request) {
	var (
		err  error
		file models.PhotoFile
	)

	album := httphelpers.GetFromRequest[string](r, "album")
	filename := httphelpers.GetFromRequest[string](r, "filename")

	if file, err = c.galleryService.OpenPhoto(r.Context(), album, filename); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httphelpers.WriteText(w, http.StatusNotFound, "not found")
			return
		}

		slog.Error("error opening photo", "error", err, "album", album, "filename", filename)
		httphelpers.TextInternalServerError(w, "Failed to load image")
		return
	}

	defer file.Body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))

	if !file.ModTime.IsZero() {
		w.Header().Set("Last-Modified", file.ModTime.UTC().Format(http.TimeFormat))
	}

	if _, err = io.Copy(w, file.Body); err != nil {
		slog.Error("error streaming photo", "error", err, "album", album, "filename", filename)
	}
}

func (c HomeController) baseViewModel(r *http.Request) viewmodels.BaseViewModel {
	session, _ := c.sessionService.Get(r)

	return viewmodels.BaseViewModel{
		SiteName:           c.siteName,
		IsHtmx:             httphelpers.IsHtmx(r),
		IsAdmin:            session.IsAdmin(),
		JavascriptIncludes: []rendering.JavascriptInclude{},
	}
}
