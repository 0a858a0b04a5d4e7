package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/robfig/cron/v3"

	"NebenkostenConsole/internal/ports"
)

// DefaultSpec is the polling cadence used while documents are processing.
const DefaultSpec = "@every 2s"

// CronScheduler fires a job according to a cron schedule evaluated on an
// injectable clock. The next fire time is computed from the previous one, so
// the cadence does not drift with slow jobs.
type CronScheduler struct {
	schedule cron.Schedule
	clock    clock.Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec (standard cron or descriptors like "@every 2s").
// A nil clock means wall-clock time.
func NewCronScheduler(spec string, clk clock.Clock) (*CronScheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return NewScheduleScheduler(schedule, clk), nil
}

// NewScheduleScheduler wraps an already parsed schedule.
func NewScheduleScheduler(schedule cron.Schedule, clk clock.Clock) *CronScheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &CronScheduler{schedule: schedule, clock: clk}
}

// Start begins firing job on the schedule. Starting a running scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alive() {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop = stop
	c.done = done

	go c.loop(ctx, job, stop, done)
	return nil
}

// Stop halts the loop and waits for it to exit; no job fires after Stop returns.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the loop is active.
func (c *CronScheduler) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive()
}

// alive must be called with mu held. A loop ended by its context counts as stopped.
func (c *CronScheduler) alive() bool {
	if c.stop == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *CronScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)

	now := c.clock.Now()
	next := c.schedule.Next(now)
	timer := c.clock.Timer(next.Sub(now))

	for {
		select {
		case fired := <-timer.C:
			// arm the next tick before running the job so a fast clock never skips it
			next = c.schedule.Next(fired)
			timer = c.clock.Timer(next.Sub(c.clock.Now()))

			select {
			case <-stop:
				timer.Stop()
				return
			default:
			}
			job(fired)
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		}
	}
}
