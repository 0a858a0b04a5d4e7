package app

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/usecase"
)

// LocalFiles describes paths on disk as upload candidates. Content is opened
// lazily so a rejected file is never read.
func LocalFiles(paths []string) ([]domain.File, error) {
	files := make([]domain.File, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}
		p := path
		files = append(files, domain.File{
			Name:     filepath.Base(path),
			MimeType: mime.TypeByExtension(filepath.Ext(path)),
			Size:     info.Size(),
			Open:     func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}
	return files, nil
}

const dropZoneID usecase.ElementID = "drop-zone"

// pathDrop is a drop of command-line paths directly onto the drop zone.
type pathDrop struct {
	files []domain.File
}

func (pathDrop) PreventDefault()                  {}
func (pathDrop) StopPropagation()                 {}
func (pathDrop) Target() usecase.ElementID        { return dropZoneID }
func (pathDrop) CurrentTarget() usecase.ElementID { return dropZoneID }
func (d pathDrop) Files() []domain.File           { return d.files }

// DropFiles feeds files through a drop-zone controller into onFiles, as if
// they had been dragged onto the page.
func DropFiles(files []domain.File, onFiles usecase.FilesFunc) {
	zone := usecase.NewDragController(onFiles)
	ev := pathDrop{files: files}
	zone.HandleDragEnter(ev)
	zone.HandleDragOver(ev)
	zone.HandleDrop(ev)
}
