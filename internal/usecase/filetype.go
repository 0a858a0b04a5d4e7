package usecase

import (
	"path/filepath"
	"strings"

	"NebenkostenConsole/internal/domain"
)

var acceptedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
}

var acceptedExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// AcceptedFileType matches the MIME type first and falls back to the
// case-insensitive filename extension when the MIME type is empty or unknown.
func AcceptedFileType(name, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if base, _, ok := strings.Cut(mimeType, ";"); ok {
		mimeType = strings.TrimSpace(base)
	}
	if _, ok := acceptedMimeTypes[mimeType]; ok {
		return true
	}
	_, ok := acceptedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FileValidator rejects files the backend would refuse.
type FileValidator struct {
	MaxBytes int64
}

// Rejection names a file and why it was not uploaded.
type Rejection struct {
	File   string
	Reason string
}

// Validate splits files into accepted and rejected, preserving order.
func (v FileValidator) Validate(files []domain.File) ([]domain.File, []Rejection) {
	accepted := make([]domain.File, 0, len(files))
	var rejected []Rejection
	for _, f := range files {
		switch {
		case !AcceptedFileType(f.Name, f.MimeType):
			rejected = append(rejected, Rejection{File: f.Name, Reason: "Nur PDF, PNG und JPG Dateien sind erlaubt"})
		case v.MaxBytes > 0 && f.Size > v.MaxBytes:
			rejected = append(rejected, Rejection{File: f.Name, Reason: "Datei ist zu groß"})
		default:
			accepted = append(accepted, f)
		}
	}
	return accepted, rejected
}
