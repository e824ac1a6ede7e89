package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	hits    int
	resetAt time.Time
}

// In-process fixed window counters. Not shared between replicas
type Memory struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time

	now func() time.Time
}

func NewMemory(limit int, length time.Duration) *Memory {
	if length <= 0 {
		length = defaultWindow
	}

	return &Memory{
		limit:   limit,
		window:  length,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if key == "" {
		key = "unknown"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}

	w.hits++
	if w.hits <= m.limit {
		return true, 0, nil
	}

	return false, w.resetAt.Sub(now), nil
}

// Drop expired windows, at most once per window length
func (m *Memory) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now

	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
