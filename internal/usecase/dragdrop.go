package usecase

import (
	"sync"
	"sync/atomic"

	"NebenkostenConsole/internal/domain"
)

// ElementID identifies a node of the drop-zone tree.
type ElementID string

// DragEvent is a pointer drag event as delivered to the drop-zone listener.
type DragEvent interface {
	PreventDefault()
	StopPropagation()
	// Target is the element the pointer entered or left.
	Target() ElementID
	// CurrentTarget is the element the listener is bound to.
	CurrentTarget() ElementID
	Files() []domain.File
}

// FilesFunc receives one dropped batch in payload order.
type FilesFunc func(files []domain.File)

// DragController turns drag events into an is-dragging flag and file batches.
type DragController struct {
	dragging atomic.Bool

	mu      sync.RWMutex
	onFiles FilesFunc
}

// NewDragController creates a controller forwarding drops to onFiles.
func NewDragController(onFiles FilesFunc) *DragController {
	return &DragController{onFiles: onFiles}
}

// SetOnFiles replaces the ingestion callback; the next drop uses it.
func (c *DragController) SetOnFiles(onFiles FilesFunc) {
	c.mu.Lock()
	c.onFiles = onFiles
	c.mu.Unlock()
}

// IsDragging reports whether a drag is hovering over the zone.
func (c *DragController) IsDragging() bool {
	return c.dragging.Load()
}

func (c *DragController) HandleDragEnter(ev DragEvent) {
	suppress(ev)
	c.dragging.Store(true)
}

// HandleDragLeave ignores leaves that only cross a child boundary.
func (c *DragController) HandleDragLeave(ev DragEvent) {
	suppress(ev)
	if ev.CurrentTarget() == ev.Target() {
		c.dragging.Store(false)
	}
}

func (c *DragController) HandleDragOver(ev DragEvent) {
	suppress(ev)
}

func (c *DragController) HandleDrop(ev DragEvent) {
	suppress(ev)
	c.dragging.Store(false)

	files := ev.Files()
	if len(files) == 0 {
		return
	}

	c.mu.RLock()
	onFiles := c.onFiles
	c.mu.RUnlock()
	if onFiles != nil {
		onFiles(files)
	}
}

func suppress(ev DragEvent) {
	ev.PreventDefault()
	ev.StopPropagation()
}
