package watcher

import (
	"context"
	"time"
)

// Scheduler abstracts the workflow's timed side effects so tests can
// drive them without real sleeps.
type Scheduler interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error

	// AfterFunc runs fn on its own goroutine after d. The caller never
	// waits on fn.
	AfterFunc(d time.Duration, fn func())
}

type wallScheduler struct{}

// NewScheduler returns the wall-clock Scheduler used outside tests.
func NewScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (wallScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
