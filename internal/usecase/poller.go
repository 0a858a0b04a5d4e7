package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// Trackable is anything that exposes an OCR lifecycle status.
type Trackable interface {
	ProcessingStatus() domain.DocumentStatus
}

// RefreshFunc is a fire-and-forget refresh round. It may run concurrently
// with itself when a round outlasts the polling interval.
type RefreshFunc func(ctx context.Context)

// ProcessingPoller keeps the scheduler running while at least one observed
// item is PROCESSING and stops it as soon as none is.
type ProcessingPoller[T Trackable] struct {
	driver     ports.Scheduler
	refreshers []RefreshFunc
	logger     *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewProcessingPoller binds the refresh callbacks to a scheduler driver.
func NewProcessingPoller[T Trackable](driver ports.Scheduler, logger *slog.Logger, refreshers ...RefreshFunc) *ProcessingPoller[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessingPoller[T]{
		driver:     driver,
		refreshers: refreshers,
		logger:     logger,
	}
}

// HasActiveProcessing reports whether the last observed collection had a PROCESSING item.
func (p *ProcessingPoller[T]) HasActiveProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Observe re-evaluates a freshly loaded collection. The refresh rounds run with ctx.
func (p *ProcessingPoller[T]) Observe(ctx context.Context, items []T) error {
	active := anyProcessing(items)

	p.mu.Lock()
	defer p.mu.Unlock()

	if active == p.active {
		return nil
	}
	p.active = active

	if p.driver == nil {
		return nil
	}

	if !active {
		p.logger.Debug("processing finished, polling stopped")
		if err := p.driver.Stop(ctx); err != nil {
			return fmt.Errorf("stop polling: %w", err)
		}
		return nil
	}

	p.logger.Debug("processing detected, polling started")
	job := func(trigger time.Time) {
		p.logger.Debug("poll tick", "at", trigger)
		for _, refresh := range p.refreshers {
			if refresh != nil {
				go refresh(ctx)
			}
		}
	}
	if err := p.driver.Start(ctx, job); err != nil {
		p.active = false
		return fmt.Errorf("start polling: %w", err)
	}
	return nil
}

// Close stops polling regardless of the observed state.
func (p *ProcessingPoller[T]) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = false
	if p.driver == nil {
		return nil
	}
	return p.driver.Stop(ctx)
}

func anyProcessing[T Trackable](items []T) bool {
	for _, item := range items {
		if item.ProcessingStatus() == domain.StatusProcessing {
			return true
		}
	}
	return false
}
