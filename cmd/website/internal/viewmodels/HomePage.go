package viewmodels

import "github.com/adampresley/photogallery/pkg/models"

type HomePage struct {
	BaseViewModel
	Albums []models.Album
	Query  string
}
