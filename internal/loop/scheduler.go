package loop

import (
	"context"
	"sync"
	"time"
)

// A Scheduler runs a function periodically and provides the pause used after
// a click.
type Scheduler interface {
	// Every calls fn every interval until the returned cancel func is called.
	// Calls of fn from one Every never overlap.
	Every(interval time.Duration, fn func()) (cancel func())
	// Sleep waits for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// TickerScheduler is the Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// NewTickerScheduler returns a ready to use TickerScheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (*TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// a cancel racing with the tick wins
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

func (*TickerScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
