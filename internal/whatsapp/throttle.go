package whatsapp

import (
	"context"
	"sync"
	"time"
)

// Operation categories for client-side rate limiting. The gateway bans
// instances that hammer it, so each category enforces a minimum spacing
// between calls.
type opCategory int

const (
	opSend opCategory = iota
	opGroupPost
	opQRCode
	opGroupList
)

var minSpacing = map[opCategory]time.Duration{
	opSend:      2 * time.Second,
	opGroupPost: 3 * time.Second,
	opQRCode:    5 * time.Second,
	opGroupList: 10 * time.Second,
}

// throttle tracks the last call per category and sleeps callers into the
// allowed spacing. It protects the shared gateway, not correctness.
type throttle struct {
	mu       sync.Mutex
	lastCall map[opCategory]time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func newThrottle() *throttle {
	return &throttle{
		lastCall: make(map[opCategory]time.Time),
		sleep:    sleepCtx,
	}
}

// wait blocks until the category's minimum spacing has elapsed, then
// records the call. Returns early if ctx is cancelled.
func (t *throttle) wait(ctx context.Context, cat opCategory) error {
	t.mu.Lock()
	now := time.Now()
	var delay time.Duration
	if last, ok := t.lastCall[cat]; ok {
		if elapsed := now.Sub(last); elapsed < minSpacing[cat] {
			delay = minSpacing[cat] - elapsed
		}
	}
	t.lastCall[cat] = now.Add(delay)
	t.mu.Unlock()

	if delay > 0 {
		return t.sleep(ctx, delay)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
