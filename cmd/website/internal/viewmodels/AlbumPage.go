package viewmodels

import "github.com/adampresley/photogallery/pkg/models"

type AlbumPage struct {
	BaseViewModel
	Album  string
	Photos []models.Photo
}
