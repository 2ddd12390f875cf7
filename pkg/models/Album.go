package models

import (
	"io"
	"time"
)

type Album struct {
	Name     string
	CoverURL string
}

type Photo struct {
	Album    string
	Filename string
	URL      string
}

/*
UploadedFile is a single file taken from a multipart form. Content is
read once; the caller owns closing whatever backs it.
*/
type UploadedFile struct {
	Filename string
	Content  io.Reader
}

type UploadResult struct {
	Album   string
	Saved   int
	Skipped int
}

/*
PhotoFile is a raw photo or cover opened for serving. The caller must
close Body.
*/
type PhotoFile struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}
