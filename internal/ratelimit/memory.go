package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is the counter state for one key.
type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter implements Limiter with a fixed window per key: the
// first request in a window sets the reset timestamp, every further
// request increments the counter, and once the wall clock passes the
// reset the counter starts over at 1.
type MemoryLimiter struct {
	limit  int
	period time.Duration

	mu      sync.Mutex
	windows map[string]*window

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter creates a fixed-window limiter allowing limit
// requests per period per key. A background goroutine evicts expired
// windows every minute; call Close to stop it.
func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go m.cleanup()
	return m
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(m.period)}
		m.windows[key] = w
		return Result{Allowed: true, Remaining: m.limit - 1, ResetAt: w.resetAt}, nil
	}

	w.count++
	if w.count > m.limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	return Result{Allowed: true, Remaining: m.limit - w.count, ResetAt: w.resetAt}, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (m *MemoryLimiter) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictExpired()
		}
	}
}

func (m *MemoryLimiter) evictExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
