package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/bolingo/core"
)

var nowFunc = time.Now // mockable

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a fixed-window limiter local to the process.
// A janitor goroutine drops expired windows until Close is called.
type MemoryLimiter struct {
	requests int
	period   time.Duration

	mu      sync.Mutex
	windows map[string]*window

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

var _ core.RateLimiter = (*MemoryLimiter)(nil) // interface compliance check

// NewMemoryLimiter allows requests per period for each key.
func NewMemoryLimiter(requests int, period time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		requests: requests,
		period:   period,
		windows:  make(map[string]*window),
		done:     make(chan struct{}),
	}
	l.wg.Add(1)
	go l.janitor()
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return true, nil
	}
	if w.count >= l.requests {
		return false, nil
	}
	w.count++
	return true, nil
}

func (l *MemoryLimiter) janitor() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryLimiter) sweep() {
	now := nowFunc()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() { close(l.done) })
	l.wg.Wait()
	return nil
}
