package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyAttempts = errors.New("too many login attempts")

	ErrEmptyAlbumName      = fmt.Errorf("%w: album name cannot be empty", ErrValidation)
	ErrEmptyFilename       = fmt.Errorf("%w: file name cannot be empty", ErrValidation)
	ErrCoverFieldsMissing  = fmt.Errorf("%w: album and cover file are required", ErrValidation)
	ErrExtensionNotAllowed = fmt.Errorf("%w: image format not allowed", ErrValidation)
	ErrInvalidPathSegment  = fmt.Errorf("%w: invalid path segment", ErrValidation)
)
