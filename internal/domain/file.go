package domain

import "io"

// File is a candidate for upload, either dropped or selected.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}
