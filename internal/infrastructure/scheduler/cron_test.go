package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func TestCronSchedulerFiresEveryInterval(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	s, err := NewCronScheduler("@every 2s", mock)
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	fired := make(chan time.Time, 10)
	ctx := context.Background()
	if err := s.Start(ctx, func(t time.Time) { fired <- t }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(ctx)
	waitRunning(t, s)

	mock.Add(time.Second)
	expectNone(t, fired)

	for i := 1; i <= 3; i++ {
		if i == 1 {
			mock.Add(time.Second)
		} else {
			mock.Add(2 * time.Second)
		}
		select {
		case got := <-fired:
			want := time.Unix(int64(2*i), 0)
			if !got.Equal(want) {
				t.Fatalf("tick %d at %v, want %v", i, got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not fire", i)
		}
	}
	expectNone(t, fired)
}

func TestCronSchedulerStopHaltsTicks(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	s, err := NewCronScheduler("", mock)
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	fired := make(chan time.Time, 10)
	ctx := context.Background()
	_ = s.Start(ctx, func(t time.Time) { fired <- t })
	waitRunning(t, s)

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.Running() {
		t.Fatalf("scheduler still running after Stop")
	}

	mock.Add(10 * time.Second)
	expectNone(t, fired)

	// stopping twice is harmless
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("every two seconds", clock.NewMock()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func waitRunning(t *testing.T, s *CronScheduler) {
	t.Helper()
	if !s.Running() {
		t.Fatalf("scheduler not running")
	}
	// give the loop goroutine time to arm its first timer
	time.Sleep(20 * time.Millisecond)
}

func expectNone(t *testing.T, fired <-chan time.Time) {
	t.Helper()
	select {
	case got := <-fired:
		t.Fatalf("unexpected tick at %v", got)
	case <-time.After(50 * time.Millisecond):
	}
}
