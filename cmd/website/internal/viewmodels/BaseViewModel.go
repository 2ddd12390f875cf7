package viewmodels

import (
	"net/http"

	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/photogallery/pkg/models"
)

type BaseViewModel struct {
	SiteName           string
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	IsAdmin            bool
	JavascriptIncludes []rendering.JavascriptInclude
}

/*
ApplyFlash copies a one-shot status message into the view.
*/
func (vm *BaseViewModel) ApplyFlash(flash *models.FlashMessage) {
	if flash == nil || flash.Message == "" {
		return
	}

	vm.Message = flash.Message
	vm.IsError = flash.IsError
}

func GetAdminSessionFromContext(r *http.Request) *models.AdminSession {
	if result, ok := r.Context().Value("admin").(*models.AdminSession); ok {
		return result
	}

	return &models.AdminSession{}
}
