package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// throttleWindow is the span over which mutating requests are counted.
// Counters reset on the first request after the window elapses rather
// than on a rolling basis.
const throttleWindow = time.Minute

// ipThrottle caps the number of mutating requests a single client IP may
// issue per window. State lives in memory only; a server restart clears
// every counter.
type ipThrottle struct {
	limit int

	mu   sync.Mutex
	seen map[string]*ipWindow

	done chan struct{}
	once sync.Once
}

type ipWindow struct {
	start time.Time
	count int
}

func newIPThrottle(perMinute int) *ipThrottle {
	t := &ipThrottle{
		limit: perMinute,
		seen:  make(map[string]*ipWindow),
		done:  make(chan struct{}),
	}
	go t.sweep()
	return t
}

// sweep periodically drops IPs that have been quiet for several windows
// so the map does not grow with every client ever seen.
func (t *ipThrottle) sweep() {
	ticker := time.NewTicker(5 * throttleWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * throttleWindow)
			t.mu.Lock()
			for ip, w := range t.seen {
				if w.start.Before(cutoff) {
					delete(t.seen, ip)
				}
			}
			t.mu.Unlock()
		case <-t.done:
			return
		}
	}
}

// stop terminates the sweeper goroutine. Safe to call more than once.
func (t *ipThrottle) stop() {
	t.once.Do(func() { close(t.done) })
}

// allow records one mutating request from clientIP and reports whether
// it stays within the per-window limit.
func (t *ipThrottle) allow(clientIP string, metrics *securityMetrics) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	w, ok := t.seen[clientIP]
	if !ok || now.Sub(w.start) > throttleWindow {
		t.seen[clientIP] = &ipWindow{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > t.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
